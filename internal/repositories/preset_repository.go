package repositories

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"subburn/internal/httpkit"
	"subburn/internal/models"
	"subburn/internal/pkg/errors"
)

var ErrPresetNotFound = stderrors.New("preset not found")
var ErrPresetNameExists = stderrors.New("preset name already exists")

type PresetRepository struct {
	db *pgxpool.Pool
}

func NewPresetRepository(db *pgxpool.Pool) *PresetRepository {
	return &PresetRepository{db: db}
}

func (r *PresetRepository) Create(ctx context.Context, p *models.Preset) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO presets (id, name, description, style)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, p.ID, p.Name, p.Description, p.Style).Scan(&p.CreatedAt)

	if err != nil {
		if httpkit.IsUniqueViolation(err) {
			return ErrPresetNameExists
		}
		return err
	}
	return nil
}

func (r *PresetRepository) List(ctx context.Context) ([]models.Preset, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, COALESCE(description,''), style, created_at
		FROM presets
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Preset{}
	for rows.Next() {
		var p models.Preset
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Style, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PresetRepository) Get(ctx context.Context, id string) (*models.Preset, error) {
	var p models.Preset
	err := r.db.QueryRow(ctx, `
		SELECT id, name, COALESCE(description,''), style, created_at, deleted_at
		FROM presets
		WHERE id=$1 AND deleted_at IS NULL
	`, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Style,
		&p.CreatedAt,
		&p.DeletedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPresetNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PresetRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE presets
		SET deleted_at=now()
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPresetNotFound
	}
	return nil
}

// PresetStyle returns the stored style overrides of a live preset.
func (r *PresetRepository) PresetStyle(ctx context.Context, id string) (map[string]any, error) {
	p, err := r.Get(ctx, id)
	if stderrors.Is(err, ErrPresetNotFound) {
		return nil, errors.NotFound("preset", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "presets.get", "failed to load preset")
	}
	return p.Style, nil
}

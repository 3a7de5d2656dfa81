package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// En localfs es el mismo object_key; en gdrive el fileId real,
	// que es lo que hay que guardar para leer o borrar después.
	ObjectKey string
	Size      int64
}

// StorageProvider: donde viven los inputs subidos y los videos renderizados.
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error

	// Ping confirma que el backend responde; lo usa /health?deep=true.
	Ping(ctx context.Context) error
}

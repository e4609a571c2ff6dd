package archive

import "fmt"

// Backend types
const (
	TypeLocalFS = "localfs"
	TypeS3      = "s3"
)

// Config selects and configures a storage backend
type Config struct {
	Type string   `mapstructure:"type"`
	Path string   `mapstructure:"path"`
	S3   S3Config `mapstructure:"s3"`
}

// New builds the backend named by cfg.Type. An empty type means localfs.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", TypeLocalFS:
		if cfg.Path == "" {
			return nil, fmt.Errorf("localfs storage requires a path")
		}
		fs, err := NewLocalFS(cfg.Path)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case TypeS3:
		s, err := NewS3(cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

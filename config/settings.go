package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
)

// Settings gathers the tunables of the collaboration and execution engine.
// Database and Redis connections keep their own POSTGRES_* / REDIS_URL variables.
type Settings struct {
	Port       string `env:"PORT,default=8080"`
	Prod       bool   `env:"PROD,default=false"`
	SessionKey string `env:"KEY,default=codecollab-dev-session-key"`
	JWTSecret  string `env:"JWT_SECRET,default=codecollab-dev-jwt-secret"`

	SocketDebug     bool          `env:"SOCKET_DEBUG,default=false"`
	BroadcastBuffer int           `env:"BROADCAST_BUFFER,default=256"`
	TokenDuration   time.Duration `env:"TOKEN_DURATION,default=24h"`

	MinPasswordLength int `env:"ROOM_MIN_PASSWORD_LENGTH,default=4"`

	CompilerPath   string        `env:"COMPILER_PATH,default=g++"`
	ExecLanguage   string        `env:"EXEC_LANGUAGE,default=cpp"`
	CompileTimeout time.Duration `env:"COMPILE_TIMEOUT,default=30s"`
	RunTimeout     time.Duration `env:"RUN_TIMEOUT,default=5m"`

	RemoteExecURL string `env:"REMOTE_EXEC_URL,default=https://emkc.org/api/v2/piston/execute"`
	UploadDir     string `env:"UPLOAD_DIR,default=uploads"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE,default=10485760"`
}

// LoadSettings reads Settings from the process environment
func LoadSettings() (*Settings, error) {
	var s Settings
	if _, err := env.UnmarshalFromEnviron(&s); err != nil {
		return nil, fmt.Errorf("error loading settings: %v", err)
	}
	if s.MinPasswordLength < 1 {
		return nil, fmt.Errorf("ROOM_MIN_PASSWORD_LENGTH must be positive, got %d", s.MinPasswordLength)
	}
	if s.CompileTimeout <= 0 || s.RunTimeout <= 0 {
		return nil, fmt.Errorf("execution timeouts must be positive")
	}
	return &s, nil
}

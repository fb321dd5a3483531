package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=720h"`
	AllowedOrigin     string        `env:"ALLOWED_ORIGIN"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE,default=256"`
	SearchLimit       int           `env:"SEARCH_LIMIT,default=50"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	CensoredWords     []string      `env:"CENSORED_WORDS"`
	CensoredChar      string        `env:"CENSORED_CHARACTER,default=*"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	StatsInterval     time.Duration `env:"STATS_INTERVAL,default=1m"`
	GCInterval        time.Duration `env:"GC_INTERVAL,default=10m"`
	DebugPort         int           `env:"DEBUG_PORT"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CENSORED_CHARACTER must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

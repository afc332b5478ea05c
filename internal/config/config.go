package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis    Redis  `yaml:"redis"`
	Game     Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Game struct {
	// AIMark is the state-string digit of the player the negamax opponent controls, 1 or 2.
	AIMark int `yaml:"ai-mark" env:"GAME_AI_MARK" env-default:"2"`
	// ManualAI stops the AI from answering on its own, it then only moves on request.
	ManualAI bool `yaml:"manual-ai" env:"GAME_MANUAL_AI"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if config.Game.AIMark != 1 && config.Game.AIMark != 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAIMark, config.Game.AIMark)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// AIPlayer - returns the zero-based player number of the AI.
func (that *Game) AIPlayer() int {
	return that.AIMark - 1
}

package config

type Config interface {
	EnvConfig
	AuthConfig
	IdpConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Auth
	Idp
}

func New() Config {
	return mainConfig{}
}

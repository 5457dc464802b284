package config

type ServiceConfig struct {
	Name           string `yaml:"name"`
	Environment    string `yaml:"environment"`
	Version        string `yaml:"version"`
	FrontendOrigin string `yaml:"frontend_origin"`
	JWTSecret      string `yaml:"jwt_secret"`
}

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
	ReplyTo  string `yaml:"reply_to"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"required"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config 存储所有配置信息
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`

	// 数据库配置
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`

	// Redis配置（可选，用于批处理互斥锁）
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// 豆包（火山方舟）API配置
	DoubaoAPIKey      string `mapstructure:"DOUBAO_API_KEY"`
	DoubaoAPIEndpoint string `mapstructure:"DOUBAO_API_ENDPOINT"`
	DoubaoModel       string `mapstructure:"DOUBAO_MODEL"`
	DoubaoMaxTokens   int    `mapstructure:"DOUBAO_MAX_TOKENS"`

	// 评分规则配置文件路径
	RubricPath string `mapstructure:"RUBRIC_PATH"`

	// 内部接口认证令牌（为空时不校验）
	InternalAuthToken string `mapstructure:"INTERNAL_AUTH_TOKEN"`
}

// LoadConfig 从环境变量或配置文件加载配置
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DOUBAO_MODEL", "doubao-1-5-pro-32k")
	viper.SetDefault("DOUBAO_MAX_TOKENS", 1024)
	viper.SetDefault("RUBRIC_PATH", "rubric.json")

	err = viper.ReadInConfig()
	if err != nil {
		// 允许配置文件不存在，此时会从环境变量中读取
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = viper.Unmarshal(&config)
	return
}

// HasDBConfig 判断数据库配置是否完整
func (c *Config) HasDBConfig() bool {
	return c.DBHost != "" && c.DBName != "" && c.DBUser != ""
}

// HasDoubaoConfig 判断豆包API配置是否完整
func (c *Config) HasDoubaoConfig() bool {
	return c.DoubaoAPIKey != "" && c.DoubaoAPIEndpoint != ""
}

// GetDBConnString 返回数据库连接字符串
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// GetRedisConnString 返回Redis连接字符串
func (c *Config) GetRedisConnString() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

package config

import (
	"github.com/kelseyhightower/envconfig"
	"time"
)

type Config struct {
	Api struct {
		Helix struct {
			Uri      string        `envconfig:"API_HELIX_URI" default:"https://api.twitch.tv/helix" required:"true"`
			ClientId string        `envconfig:"API_HELIX_CLIENT_ID" required:"true"`
			Timeout  time.Duration `envconfig:"API_HELIX_TIMEOUT" default:"10s" required:"true"`
			Token    struct {
				App   string            `envconfig:"API_HELIX_TOKEN_APP" default:""`
				Users map[string]string `envconfig:"API_HELIX_TOKEN_USERS" default:""`
			}
		}
		Transport string `envconfig:"API_TRANSPORT" default:"websocket" required:"true"`
		Webhook   WebhookConfig
		Websocket WebsocketConfig
		Health    struct {
			Port uint16 `envconfig:"API_HEALTH_PORT" default:"50051" required:"true"`
		}
		Telegram struct {
			Token  string `envconfig:"API_TELEGRAM_TOKEN" default:""`
			ChatId int64  `envconfig:"API_TELEGRAM_CHAT_ID" default:"0"`
		}
	}
	Log struct {
		Level int `envconfig:"LOG_LEVEL" default:"-4" required:"true"`
	}
	Subscriptions struct {
		BroadcasterIds []string `envconfig:"SUBSCRIPTIONS_BROADCASTER_IDS" default:""`
	}
}

type WebhookConfig struct {
	Host   string `envconfig:"API_WEBHOOK_HOST" default:"localhost" required:"true"`
	Path   string `envconfig:"API_WEBHOOK_PATH" default:"/eventsub" required:"true"`
	Port   uint16 `envconfig:"API_WEBHOOK_PORT" default:"8080" required:"true"`
	Secret string `envconfig:"API_WEBHOOK_SECRET" default:""`
}

type WebsocketConfig struct {
	Uri     string `envconfig:"API_WEBSOCKET_URI" default:"wss://eventsub.wss.twitch.tv/ws" required:"true"`
	Backoff BackoffConfig
}

type BackoffConfig struct {
	Init       time.Duration `envconfig:"API_WEBSOCKET_BACKOFF_INIT" default:"1s" required:"true"`
	Factor     float64       `envconfig:"API_WEBSOCKET_BACKOFF_FACTOR" default:"2" required:"true"`
	Max        time.Duration `envconfig:"API_WEBSOCKET_BACKOFF_MAX" default:"1m" required:"true"`
	LimitTotal time.Duration `envconfig:"API_WEBSOCKET_BACKOFF_LIMIT_TOTAL" default:"0" required:"true"`
}

func NewConfigFromEnv() (cfg Config, err error) {
	err = envconfig.Process("", &cfg)
	return
}

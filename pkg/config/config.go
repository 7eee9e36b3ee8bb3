package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       Server     `mapstructure:"server"`
	Postgres     Postgres   `mapstructure:"postgres"`
	Broker       Broker     `mapstructure:"broker"`
	Telegram     Telegram   `mapstructure:"telegram"`
	Pipeline     Pipeline   `mapstructure:"pipeline"`
	Outbox       Outbox     `mapstructure:"outbox"`
	HTTPClient   HTTPClient `mapstructure:"httpClient"`
	LoggingLevel string     `mapstructure:"logging-level"`
	Timezone     string     `mapstructure:"timezone"` // локаль для дат в сообщениях, по умолчанию UTC
}

type Server struct {
	Port      string `mapstructure:"port"`
	BodyLimit int    `mapstructure:"body_limit"`
}

type Postgres struct {
	ConnString     string `mapstructure:"conn_string"`
	MaxConnections int32  `mapstructure:"max_connections"`
}

type Broker struct {
	Kafka Kafka `mapstructure:"kafka"`
}

type Kafka struct {
	Brokers      string `mapstructure:"brokers"`
	ReaderTopic  string `mapstructure:"readerTopic"` // доменные события от стороны записи
	ReaderUsr    string `mapstructure:"readerUsr"`
	ReaderUsrPwd string `mapstructure:"readerUsrPwd"`
	WriterTopic  string `mapstructure:"writerTopic"` // DLQ для просроченных строк outbox
	WriterUsr    string `mapstructure:"writerUsr"`
	WriterUsrPwd string `mapstructure:"writerUsrPwd"`
	MaxAttempts  int    `mapstructure:"maxAttempts"`
}

type Telegram struct {
	APIURL                   string        `mapstructure:"apiURL"` // https://api.telegram.org
	BotToken                 string        `mapstructure:"botToken"`
	BotName                  string        `mapstructure:"botName"`
	RegistrationLinkTemplate string        `mapstructure:"registrationLinkTemplate"` // с плейсхолдерами {botName} и {eventId}
	FeedbackLinkTemplate     string        `mapstructure:"feedbackLinkTemplate"`
	SendTimeout              time.Duration `mapstructure:"sendTimeout"` // таймаут одной попытки доставки
}

// Pipeline - настройки консьюмеров журнала доменных событий.
type Pipeline struct {
	BatchSize        int    `mapstructure:"batchSize"`        // записей журнала за батч, [1,1000]
	InAppSchedule    string `mapstructure:"inAppSchedule"`    // cron spec или "@every 5s"
	TelegramSchedule string `mapstructure:"telegramSchedule"`
}

// Outbox - настройки delivery-процессора и sweep просроченных строк.
type Outbox struct {
	BatchSize        int           `mapstructure:"batchSize"`
	FreshnessWindow  time.Duration `mapstructure:"freshnessWindow"` // максимальный возраст строки для доставки
	DeliverySchedule string        `mapstructure:"deliverySchedule"`
	SweepSchedule    string        `mapstructure:"sweepSchedule"`
}

type HTTPClient struct {
	//конфиг клиента
	ConnectTimeout        time.Duration `mapstructure:"connectTimeout"`        // TCP коннект
	TLSHandshakeTimeout   time.Duration `mapstructure:"TLSHandshakeTimeout"`   // TLS рукопожатие
	ResponseHeaderTimeout time.Duration `mapstructure:"responseHeaderTimeout"` // ожидание заголовков ответа
	ExpectContinueTimeout time.Duration `mapstructure:"expectContinueTimeout"` // 100-continue

	// Пул соединений
	IdleConnTimeout     time.Duration `mapstructure:"idleConnTimeout"`
	MaxIdleConns        int           `mapstructure:"maxIdleConns"`
	MaxIdleConnsPerHost int           `mapstructure:"maxIdleConnsPerHost"`
	MaxConnsPerHost     int           `mapstructure:"maxConnsPerHost"`
	KeepAlives          bool          `mapstructure:"keepAlives"`

	// Общий таймаут клиента. 0 — контролируем дедлайном через context.
	ClientTimeout time.Duration `mapstructure:"clientTimeout"`

	// Прочее
	UserAgent  string `mapstructure:"userAgent"`
	MaxRetries int    `mapstructure:"maxRetries"`

	// SSL/TLS настройки
	InsecureSkipVerify bool `mapstructure:"insecureSkipVerify"` // отключить проверку SSL сертификатов
}

func NewConfig() (Config, error) {
	viper.AutomaticEnv()
	// Настраиваем замену точек и дефисов на подчеркивания для переменных окружения
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	setDefaults()

	var conf Config
	err := viper.ReadInConfig() // Find and read the config file
	// Игнорируем ошибку, если файл не найден - используем только переменные окружения
	if err != nil {
		// Если это не ошибка "файл не найден", возвращаем её
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return conf, err
		}
	}

	// unmarshal
	err = viper.Unmarshal(&conf)

	return conf, err
}

func setDefaults() {
	viper.SetDefault("timezone", "UTC")

	viper.SetDefault("pipeline.batchSize", 100)
	viper.SetDefault("pipeline.inAppSchedule", "@every 5s")
	viper.SetDefault("pipeline.telegramSchedule", "@every 5s")

	viper.SetDefault("outbox.batchSize", 30)
	viper.SetDefault("outbox.freshnessWindow", 30*time.Minute)
	viper.SetDefault("outbox.deliverySchedule", "@every 5s")
	viper.SetDefault("outbox.sweepSchedule", "@every 1m")

	viper.SetDefault("telegram.apiURL", "https://api.telegram.org")
	viper.SetDefault("telegram.registrationLinkTemplate", "https://t.me/{botName}?start=reg_{eventId}")
	viper.SetDefault("telegram.feedbackLinkTemplate", "https://t.me/{botName}?start=poll_{eventId}")
	viper.SetDefault("telegram.sendTimeout", 5*time.Second)
}

package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ReceiptSettings controls receipt presentation. Amount values are never
// reformatted; Currency is only prefixed to them.
type ReceiptSettings struct {
	Title          string `mapstructure:"title"`
	Currency       string `mapstructure:"currency"`
	Footer         string `mapstructure:"footer"`
	TextWidth      int    `mapstructure:"text_width"`
	PDFCompression bool   `mapstructure:"pdf_compression"`
}

func DefaultReceiptSettings() ReceiptSettings {
	return ReceiptSettings{
		Title:          "Cyber Café Receipt",
		Currency:       "KES",
		TextWidth:      40,
		PDFCompression: true,
	}
}

type ReceiptSettingsHolder struct {
	current atomic.Value // holds ReceiptSettings
}

// NewReceiptSettingsHolder reads receipt.yml from the configured search paths
// and keeps it hot reloaded. A missing file yields the defaults.
func NewReceiptSettingsHolder(cfg Config, log *zap.Logger) (*ReceiptSettingsHolder, error) {
	return LoadReceiptSettings(log, cfg.ReceiptConfigPaths...)
}

// NewStaticReceiptSettings returns a holder that never reloads.
func NewStaticReceiptSettings(settings ReceiptSettings) *ReceiptSettingsHolder {
	holder := &ReceiptSettingsHolder{}
	holder.current.Store(settings)
	return holder
}

func LoadReceiptSettings(log *zap.Logger, paths ...string) (*ReceiptSettingsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("receipt.config")

	v := viper.New()
	v.SetConfigName("receipt")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("CAFEPOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultReceiptSettings()
	v.SetDefault("receipt.title", defaults.Title)
	v.SetDefault("receipt.currency", defaults.Currency)
	v.SetDefault("receipt.footer", defaults.Footer)
	v.SetDefault("receipt.text_width", defaults.TextWidth)
	v.SetDefault("receipt.pdf_compression", defaults.PDFCompression)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	settings, err := decodeReceiptSettings(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticReceiptSettings(settings)
	if !fileFound {
		log.Debug("receipt config not found, using defaults")
		return holder, nil
	}

	log.Info("receipt config loaded", zap.String("file", v.ConfigFileUsed()))
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeReceiptSettings(v)
		if err != nil {
			log.Warn("receipt config reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("receipt config reloaded", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *ReceiptSettingsHolder) Current() ReceiptSettings {
	return h.current.Load().(ReceiptSettings)
}

func decodeReceiptSettings(v *viper.Viper) (ReceiptSettings, error) {
	var file struct {
		Receipt ReceiptSettings `mapstructure:"receipt"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return ReceiptSettings{}, err
	}
	settings := file.Receipt
	settings.Title = strings.TrimSpace(settings.Title)
	settings.Currency = strings.TrimSpace(settings.Currency)
	settings.Footer = strings.TrimSpace(settings.Footer)
	if err := validateReceiptSettings(settings); err != nil {
		return ReceiptSettings{}, err
	}
	return settings, nil
}

func validateReceiptSettings(s ReceiptSettings) error {
	if s.Title == "" {
		return errors.New("receipt.title cannot be empty")
	}
	if s.TextWidth < 20 {
		return errors.New("receipt.text_width must be at least 20")
	}
	return nil
}

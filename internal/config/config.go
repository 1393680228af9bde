// Package config loads sheetmail configuration from config files,
// .env files, and SM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/daviddao/sheetmail/internal/logging"
	"github.com/daviddao/sheetmail/internal/types"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Mail transports.
const (
	TransportSMTP  = "smtp"
	TransportGmail = "gmail"
)

// Archive backends.
const (
	ArchiveNone   = "none"
	ArchiveIMAP   = "imap"
	ArchiveSQLite = "sqlite"
)

// Config is the complete, immutable runtime configuration. It is passed by
// value; nothing mutates it after Load.
type Config struct {
	ConfigFile string

	SpreadsheetID      string
	SheetTab           string
	ServiceAccountFile string
	Columns            Columns

	Interval        time.Duration
	Debounce        time.Duration
	TimestampLayout string

	Mail      Mail
	Archive   Archive
	Colors    Colors
	Templates Templates
	Log       logging.Config
}

// Columns maps logical fields to sheet header names.
type Columns struct {
	Name      string
	Email     string
	Show      string
	Response  string
	Status    string
	Timestamp string
}

// Mail configures the outbound transport.
type Mail struct {
	Transport   string
	FromName    string
	FromAddress string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTimeout  time.Duration

	GmailCredentials string
}

// Archive configures where a copy of each sent email goes.
type Archive struct {
	Backend string

	IMAPAddr     string
	IMAPMailbox  string
	IMAPUsername string
	IMAPPassword string

	SQLitePath string
}

// Colors are the row backgrounds the reconciler writes or honors.
type Colors struct {
	Action   types.Color
	Rejected types.Color
	Active   types.Color
	Final    types.Color
	Halt     types.Color
}

// Templates hold the follow-up email content. RegistrationURL and
// MeetingURL fill the {registration_url} and {meeting_url} placeholders.
type Templates struct {
	Subject   string
	Followups []string
	Signature string

	RegistrationURL string
	MeetingURL      string
}

// uses reports whether any template text contains placeholder.
func (t Templates) uses(placeholder string) bool {
	if strings.Contains(t.Subject, placeholder) || strings.Contains(t.Signature, placeholder) {
		return true
	}
	return slices.ContainsFunc(t.Followups, func(body string) bool {
		return strings.Contains(body, placeholder)
	})
}

// Load reads configuration in order of precedence:
//  1. SM_* environment variables
//  2. .env.local / .env files
//  3. the config file (explicit path, or sheetmail.yaml in . or $HOME)
//  4. defaults
func Load(configFile string) (Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("sheetmail")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("spreadsheet_id", "")
	v.SetDefault("sheet_tab", DefaultSheetTab)
	v.SetDefault("service_account_file", "")

	v.SetDefault("columns.name", DefaultNameColumn)
	v.SetDefault("columns.email", DefaultEmailColumn)
	v.SetDefault("columns.show", DefaultShowColumn)
	v.SetDefault("columns.response", DefaultResponseColumn)
	v.SetDefault("columns.status", DefaultStatusColumn)
	v.SetDefault("columns.timestamp", DefaultTimestampColumn)

	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("debounce", DefaultDebounce)
	v.SetDefault("timestamp_layout", DefaultTimestampLayout)

	v.SetDefault("mail.transport", TransportSMTP)
	v.SetDefault("mail.from_name", "")
	v.SetDefault("mail.from_address", "")
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.port", DefaultSMTPPort)
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")
	v.SetDefault("mail.smtp.timeout", 30*time.Second)
	v.SetDefault("mail.gmail.credentials", "")

	v.SetDefault("archive.backend", ArchiveNone)
	v.SetDefault("archive.imap.addr", "")
	v.SetDefault("archive.imap.mailbox", DefaultIMAPMailbox)
	v.SetDefault("archive.imap.username", "")
	v.SetDefault("archive.imap.password", "")
	v.SetDefault("archive.sqlite.path", DefaultSQLitePath)

	v.SetDefault("colors.action", DefaultActionColor)
	v.SetDefault("colors.rejected", DefaultRejectedColor)
	v.SetDefault("colors.active", DefaultActiveColor)
	v.SetDefault("colors.final", DefaultFinalColor)
	v.SetDefault("colors.halt", DefaultHaltColor)

	v.SetDefault("templates.subject", DefaultSubject)
	v.SetDefault("templates.followups", DefaultFollowups)
	v.SetDefault("templates.signature", DefaultSignature)
	v.SetDefault("templates.registration_url", "")
	v.SetDefault("templates.meeting_url", "")

	def := logging.DefaultConfig()
	v.SetDefault("log.level", def.Level)
	v.SetDefault("log.format", def.Format)
	v.SetDefault("log.output", def.Output)
	v.SetDefault("log.time_format", def.TimeFormat)
	v.SetDefault("log.no_color", def.NoColor)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		ConfigFile:         v.ConfigFileUsed(),
		SpreadsheetID:      v.GetString("spreadsheet_id"),
		SheetTab:           v.GetString("sheet_tab"),
		ServiceAccountFile: v.GetString("service_account_file"),
		Columns: Columns{
			Name:      v.GetString("columns.name"),
			Email:     v.GetString("columns.email"),
			Show:      v.GetString("columns.show"),
			Response:  v.GetString("columns.response"),
			Status:    v.GetString("columns.status"),
			Timestamp: v.GetString("columns.timestamp"),
		},
		Interval:        v.GetDuration("interval"),
		Debounce:        v.GetDuration("debounce"),
		TimestampLayout: v.GetString("timestamp_layout"),
		Mail: Mail{
			Transport:        strings.ToLower(v.GetString("mail.transport")),
			FromName:         v.GetString("mail.from_name"),
			FromAddress:      v.GetString("mail.from_address"),
			SMTPHost:         v.GetString("mail.smtp.host"),
			SMTPPort:         v.GetInt("mail.smtp.port"),
			SMTPUsername:     v.GetString("mail.smtp.username"),
			SMTPPassword:     v.GetString("mail.smtp.password"),
			SMTPTimeout:      v.GetDuration("mail.smtp.timeout"),
			GmailCredentials: v.GetString("mail.gmail.credentials"),
		},
		Archive: Archive{
			Backend:      strings.ToLower(v.GetString("archive.backend")),
			IMAPAddr:     v.GetString("archive.imap.addr"),
			IMAPMailbox:  v.GetString("archive.imap.mailbox"),
			IMAPUsername: v.GetString("archive.imap.username"),
			IMAPPassword: v.GetString("archive.imap.password"),
			SQLitePath:   v.GetString("archive.sqlite.path"),
		},
		Templates: Templates{
			Subject:   v.GetString("templates.subject"),
			Followups: slices.Clone(v.GetStringSlice("templates.followups")),
			Signature: v.GetString("templates.signature"),

			RegistrationURL: v.GetString("templates.registration_url"),
			MeetingURL:      v.GetString("templates.meeting_url"),
		},
		Log: logging.Config{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			TimeFormat: v.GetString("log.time_format"),
			NoColor:    v.GetBool("log.no_color"),
		},
	}

	// The SMTP login doubles as the mailbox login unless told otherwise.
	if cfg.Mail.SMTPUsername == "" {
		cfg.Mail.SMTPUsername = cfg.Mail.FromAddress
	}
	if cfg.Archive.IMAPUsername == "" {
		cfg.Archive.IMAPUsername = cfg.Mail.SMTPUsername
	}
	if cfg.Archive.IMAPPassword == "" {
		cfg.Archive.IMAPPassword = cfg.Mail.SMTPPassword
	}
	if cfg.Archive.IMAPAddr == "" && cfg.Mail.SMTPHost != "" {
		cfg.Archive.IMAPAddr = cfg.Mail.SMTPHost + ":993"
	}

	var errs []error
	for key, dst := range map[string]*types.Color{
		"colors.action":   &cfg.Colors.Action,
		"colors.rejected": &cfg.Colors.Rejected,
		"colors.active":   &cfg.Colors.Active,
		"colors.final":    &cfg.Colors.Final,
		"colors.halt":     &cfg.Colors.Halt,
	} {
		c, err := types.ParseHexColor(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		*dst = c
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return cfg, nil
}

// Validate reports every problem that would prevent a pass from running.
func (c Config) Validate() error {
	var errs []error
	require := func(val, name string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	require(c.SpreadsheetID, "spreadsheet_id")
	require(c.SheetTab, "sheet_tab")
	require(c.ServiceAccountFile, "service_account_file")
	require(c.Mail.FromAddress, "mail.from_address")
	require(c.Columns.Name, "columns.name")
	require(c.Columns.Email, "columns.email")
	require(c.Columns.Show, "columns.show")
	require(c.Columns.Response, "columns.response")
	require(c.Columns.Status, "columns.status")
	require(c.Columns.Timestamp, "columns.timestamp")
	require(c.TimestampLayout, "timestamp_layout")

	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %s", c.Debounce))
	}
	if len(c.Templates.Followups) == 0 {
		errs = append(errs, errors.New("templates.followups needs at least one body"))
	}
	if c.Templates.uses("{registration_url}") {
		require(c.Templates.RegistrationURL, "templates.registration_url")
	}
	if c.Templates.uses("{meeting_url}") {
		require(c.Templates.MeetingURL, "templates.meeting_url")
	}

	switch c.Mail.Transport {
	case TransportSMTP:
		require(c.Mail.SMTPHost, "mail.smtp.host")
		require(c.Mail.SMTPPassword, "mail.smtp.password")
		if c.Mail.SMTPPort <= 0 {
			errs = append(errs, fmt.Errorf("mail.smtp.port must be positive, got %d", c.Mail.SMTPPort))
		}
	case TransportGmail:
		require(c.Mail.GmailCredentials, "mail.gmail.credentials")
	default:
		errs = append(errs, fmt.Errorf("unknown mail.transport %q (must be: smtp, gmail)", c.Mail.Transport))
	}

	switch c.Archive.Backend {
	case ArchiveNone, "":
	case ArchiveIMAP:
		require(c.Archive.IMAPAddr, "archive.imap.addr")
		require(c.Archive.IMAPMailbox, "archive.imap.mailbox")
		require(c.Archive.IMAPUsername, "archive.imap.username")
		require(c.Archive.IMAPPassword, "archive.imap.password")
	case ArchiveSQLite:
		require(c.Archive.SQLitePath, "archive.sqlite.path")
	default:
		errs = append(errs, fmt.Errorf("unknown archive.backend %q (must be: none, imap, sqlite)", c.Archive.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// loadEnvFiles loads .env.local then .env. godotenv never overrides a
// variable that is already set, so the first file wins.
func loadEnvFiles() {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}
}

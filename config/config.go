package config

import (
	"errors"
	"flag"
	"net"
	"regexp"
	"strconv"

	"github.com/mbolis/rpe-survey/schema"
)

type Config struct {
	Addr              string
	DBUrl             string
	PublicDir         string
	EmailDomain       string
	DashboardURL      string
	TrainerPassphrase string
	Debug             bool
}

func ParseFlags(args []string) (cfg Config, err error) {
	flags := flag.NewFlagSet("rpe-survey", flag.ContinueOnError)

	var host string
	flags.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	flags.UintVar(&port, "port", 4025, "listen port number")
	flags.StringVar(&cfg.DBUrl, "db-url", "rpe.sqlite", "path to SQLite3 DB file")
	flags.StringVar(&cfg.PublicDir, "public-dir", "public", "directory of static files served at /")
	flags.StringVar(&cfg.EmailDomain, "email-domain", schema.DefaultEmailDomain, "institutional domain appended to athlete emails")
	flags.StringVar(&cfg.DashboardURL, "dashboard-url", "http://127.0.0.1:4025/dashboard/", "URL of the analytics dashboard embedded in the trainer page")
	flags.StringVar(&cfg.TrainerPassphrase, "trainer-passphrase", "", "shared passphrase opening the trainer view")
	flags.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	if err = flags.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))

	if cfg.TrainerPassphrase == "" {
		err = errors.New("missing parameter -trainer-passphrase")
	}

	return
}

var reAnyHost = regexp.MustCompile(`^0\.0\.0\.0`)

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = reAnyHost.ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

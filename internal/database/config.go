package database

import (
	"fmt"
	"strconv"
	"time"
)

// DefaultPort is used whenever the browser sends no usable port.
const DefaultPort = 3306

// ConnParams are the credentials the browser sends with every request.
// The server never stores them beyond the lifetime of a pooled connection.
type ConnParams struct {
	Host     string `json:"host" validate:"required"`
	User     string `json:"user" validate:"required"`
	Password string `json:"password"`
	Database string `json:"database"`
	Port     Port   `json:"port"`
}

// Key identifies the pool serving these params. The password is left out
// on purpose so keys are safe to log.
func (p ConnParams) Key() string {
	return fmt.Sprintf("%s@%s:%d/%s", p.User, p.Host, p.Port.Int(), p.Database)
}

// WithoutDatabase returns a copy that connects to the server only.
func (p ConnParams) WithoutDatabase() ConnParams {
	p.Database = ""
	return p
}

// Port accepts a JSON number or string and falls back to DefaultPort.
type Port int

// Int returns the port, or DefaultPort when unset.
func (p Port) Int() int {
	if p <= 0 {
		return DefaultPort
	}
	return int(p)
}

func (p *Port) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	*p = ParsePort(s)
	return nil
}

// ParsePort converts a form value into a Port; garbage becomes the default.
func ParsePort(s string) Port {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return Port(n)
}

// PoolConfig tunes the per-server connection pools.
type PoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"` // time limit for establishing a connection
	QueryTimeout   time.Duration `yaml:"query_timeout"`   // per-request statement deadline
	TLS            string        `yaml:"tls"`             // go-sql-driver tls param: "", "true", "skip-verify", "preferred"
}

// DefaultPoolConfig returns pool settings sized for an interactive client:
// few connections per server, short idle time.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		QueryTimeout:    60 * time.Second,
		TLS:             "preferred",
	}
}

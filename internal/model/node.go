package model

// Type tags a Node. The named constants are the protocols this service parses
// itself; structured lists may carry any other value, which is passed through.
type Type string

const (
	TypeSS     Type = "ss"
	TypeVMess  Type = "vmess"
	TypeSocks5 Type = "socks5"
	TypeTrojan Type = "trojan"
	TypeRaw    Type = "raw"
)

// KV is one ordered key/value pair.
type KV struct {
	Key   string
	Value string
}

// Node is one normalized proxy entry.
//
// Identity lives in Type/Server/Port (plus the vmess UUID, see Key). Protocol
// specific attributes live in at most one of the variant pointers. Nodes are
// built once by a parser and never mutated afterwards.
type Node struct {
	Name   string
	Type   Type
	Server string // "" means absent
	Port   int    // 0 means absent
	Cipher string
	Note   string // diagnostic text, raw passthrough nodes only

	VMess  *VMess
	Socks  *Socks
	SS     *Shadowsocks
	Trojan *Trojan

	// Raw is the original structured record (YAML mapping or JSON object), kept
	// for lossless re-emission.
	Raw map[string]any
	// Preview is a bounded prefix of source text that could not be parsed.
	Preview string
}

// VMess holds the vmess user id and transport.
type VMess struct {
	UUID    string
	AlterID int
	Network string
}

// Socks holds socks5 credentials.
type Socks struct {
	// Auth is the opaque "user:pass" segment, not decoded.
	Auth string
}

// Shadowsocks holds the ss password and SIP003 plugin.
type Shadowsocks struct {
	Password string

	// PluginOpts must preserve order (no map) to keep output deterministic.
	Plugin     string
	PluginOpts []KV
}

// Trojan holds the trojan password and TLS server name.
type Trojan struct {
	Password string
	SNI      string
}

// UUID returns the vmess user id, or "" for every other variant.
func (n Node) UUID() string {
	if n.VMess == nil {
		return ""
	}
	return n.VMess.UUID
}

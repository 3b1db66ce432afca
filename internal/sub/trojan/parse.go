// Package trojan parses trojan://password@host:port?sni=...#name share links.
package trojan

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/subagg-go/internal/model"
	"github.com/John-Robertt/subagg-go/internal/netutil"
)

const Scheme = "trojan://"

// ParseURI parses one trojan:// line. A missing password, an invalid host or
// an invalid port yields ok=false.
func ParseURI(line string) (model.Node, bool) {
	u, err := url.Parse(strings.TrimSpace(line))
	if err != nil || !strings.EqualFold(u.Scheme, "trojan") || u.User == nil {
		return model.Node{}, false
	}
	password := u.User.Username()
	if password == "" {
		return model.Node{}, false
	}
	server := u.Hostname()
	if !netutil.ValidHost(server) {
		return model.Node{}, false
	}
	port, err := netutil.ParsePort(u.Port())
	if err != nil {
		return model.Node{}, false
	}

	q := u.Query()
	sni := q.Get("sni")
	if sni == "" {
		sni = q.Get("peer")
	}
	name := strings.TrimSpace(u.Fragment)
	if name == "" {
		name = "trojan-" + server + ":" + strconv.Itoa(port)
	}
	return model.Node{
		Name:   name,
		Type:   model.TypeTrojan,
		Server: server,
		Port:   port,
		Trojan: &model.Trojan{Password: password, SNI: sni},
	}, true
}

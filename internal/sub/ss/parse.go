// Package ss parses shadowsocks URIs (SIP002 and the legacy all-base64 form).
package ss

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/subagg-go/internal/codec"
	"github.com/John-Robertt/subagg-go/internal/model"
	"github.com/John-Robertt/subagg-go/internal/netutil"
)

const Scheme = "ss://"

var (
	errControlChars  = errors.New("control characters")
	errEmptyBody     = errors.New("empty uri body")
	errBadUserInfo   = errors.New("userinfo is not base64(method:password)")
	errPathForbidden = errors.New("path is not allowed (only empty or /)")
)

// ParseURI parses one ss:// line. ok is false when the line is not a usable
// shadowsocks URI.
func ParseURI(line string) (model.Node, bool) {
	n, err := parseURI(strings.TrimSpace(line))
	if err != nil {
		return model.Node{}, false
	}
	return n, true
}

func parseURI(s string) (model.Node, error) {
	if len(s) < len(Scheme) || !strings.EqualFold(s[:len(Scheme)], Scheme) {
		return model.Node{}, errors.New("missing ss:// prefix")
	}
	s = Scheme + s[len(Scheme):]

	// Fragment first: #name
	withoutFrag, frag, hasFrag := strings.Cut(s, "#")
	name := ""
	if hasFrag {
		decoded, err := url.PathUnescape(frag)
		if err != nil {
			return model.Node{}, err
		}
		name = strings.TrimSpace(decoded)
		if strings.ContainsAny(name, "\r\n\x00") {
			return model.Node{}, errControlChars
		}
	}

	withoutQuery, query, hasQuery := strings.Cut(withoutFrag, "?")
	plugin, pluginOpts, err := parseQueryPlugin(query, hasQuery)
	if err != nil {
		return model.Node{}, err
	}

	rest := strings.TrimPrefix(withoutQuery, Scheme)
	if rest == "" {
		return model.Node{}, errEmptyBody
	}

	var method, password, hostPort string
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		userB64, hostPart := rest[:at], rest[at+1:]
		// SIP002: <b64(method:password)>@<host>:<port>[/]
		if idx := strings.IndexByte(hostPart, '/'); idx >= 0 {
			if hostPart[idx:] != "/" {
				return model.Node{}, errPathForbidden
			}
			hostPart = hostPart[:idx]
		}
		method, password, err = decodeMethodPassword(userB64)
		if err != nil {
			return model.Node{}, err
		}
		hostPort = hostPart
	} else {
		// Legacy: ss://<b64(method:password@host:port)>
		decoded, ok := codec.DecodeBase64(strings.TrimSuffix(rest, "/"))
		if !ok {
			return model.Node{}, errBadUserInfo
		}
		at := strings.LastIndex(decoded, "@")
		if at < 0 {
			return model.Node{}, errors.New("decoded legacy form lacks '@'")
		}
		method, password, err = splitMethodPassword(decoded[:at])
		if err != nil {
			return model.Node{}, err
		}
		hostPort = decoded[at+1:]
	}

	server, port, err := netutil.SplitHostPort(hostPort)
	if err != nil {
		return model.Node{}, err
	}

	if name == "" {
		name = server + ":" + strconv.Itoa(port)
	}
	return model.Node{
		Name:   name,
		Type:   model.TypeSS,
		Server: server,
		Port:   port,
		Cipher: strings.ToLower(method),
		SS: &model.Shadowsocks{
			Password:   password,
			Plugin:     plugin,
			PluginOpts: pluginOpts,
		},
	}, nil
}

func parseQueryPlugin(query string, hasQuery bool) (string, []model.KV, error) {
	if !hasQuery || query == "" {
		return "", nil, nil
	}

	// net/url.ParseQuery rejects unescaped semicolons, but SIP002 plugin values
	// use them, so split on '&' by hand. Unknown keys are ignored.
	var pluginValue string
	for _, part := range strings.Split(query, "&") {
		if part == "" {
			continue
		}
		kRaw, vRaw, _ := strings.Cut(part, "=")
		k, err := url.PathUnescape(kRaw)
		if err != nil {
			return "", nil, err
		}
		if k != "plugin" {
			continue
		}
		v, err := url.PathUnescape(vRaw)
		if err != nil {
			return "", nil, err
		}
		pluginValue = v
	}
	if strings.TrimSpace(pluginValue) == "" {
		return "", nil, nil
	}

	segs := strings.Split(pluginValue, ";")
	plugin := strings.TrimSpace(segs[0])
	if plugin == "" {
		return "", nil, errors.New("empty plugin name")
	}
	opts := make([]model.KV, 0, len(segs)-1)
	for _, seg := range segs[1:] {
		if seg == "" {
			continue
		}
		k, v, _ := strings.Cut(seg, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			return "", nil, errors.New("empty plugin option key")
		}
		opts = append(opts, model.KV{Key: k, Value: strings.TrimSpace(v)})
	}
	return plugin, opts, nil
}

func decodeMethodPassword(userB64 string) (string, string, error) {
	if decoded, ok := codec.DecodeBase64(userB64); ok && strings.Contains(decoded, ":") {
		return splitMethodPassword(decoded)
	}
	// Some providers put "method:password" percent-encoded instead of base64.
	unescaped, err := url.PathUnescape(userB64)
	if err != nil {
		return "", "", errBadUserInfo
	}
	return splitMethodPassword(unescaped)
}

func splitMethodPassword(s string) (string, string, error) {
	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return "", "", errBadUserInfo
	}
	method := strings.TrimSpace(s[:colon])
	password := strings.TrimSpace(s[colon+1:])
	if method == "" || password == "" {
		return "", "", errors.New("empty method or password")
	}
	if strings.ContainsAny(method, "\r\n\x00") || strings.ContainsAny(password, "\r\n\x00") {
		return "", "", errControlChars
	}
	return method, password, nil
}

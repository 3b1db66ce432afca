// Package rules validates the rule template appended to every aggregate.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/John-Robertt/subagg-go/internal/model"
)

// Stage is the AppError stage of every template error.
const Stage = "config_rules"

type Rule struct {
	Type      string
	Value     string // empty for MATCH
	Action    string
	NoResolve bool
}

// String renders the canonical Clash line.
func (r Rule) String() string {
	if r.Type == "MATCH" {
		return "MATCH," + r.Action
	}
	s := r.Type + "," + r.Value + "," + r.Action
	if r.NoResolve {
		s += ",no-resolve"
	}
	return s
}

type RuleError struct {
	AppError model.AppError
	Cause    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	if e.AppError.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.AppError.Line, msg)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RuleError) Unwrap() error { return e.Cause }

func ruleError(code, message, hint string, cause error) *RuleError {
	return &RuleError{
		AppError: model.AppError{Code: code, Message: message, Stage: Stage, Hint: hint},
		Cause:    cause,
	}
}

// ParseList splits a RULES value: a JSON string array, or one rule per line.
func ParseList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "[") {
		var out []string
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, ruleError("RULE_PARSE_ERROR", "RULES 不是合法的 JSON 字符串数组", "", err)
		}
		return out, nil
	}
	return strings.Split(s, "\n"), nil
}

// ParseTemplate validates lines and returns them in canonical form. Blank
// lines and # comments are dropped. MATCH may appear once, as the last rule.
func ParseTemplate(lines []string) ([]string, error) {
	out := make([]string, 0, len(lines))
	matched := false
	for i, raw := range lines {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r, err := ParseLine(line)
		if err == nil && matched {
			err = ruleError("RULE_PARSE_ERROR", "MATCH 之后不允许再有规则", "MATCH must be the last rule", nil)
		}
		if err != nil {
			var re *RuleError
			if errors.As(err, &re) {
				re.AppError.Line = i + 1
				re.AppError.Snippet = truncateSnippet(raw, 200)
			}
			return nil, err
		}
		if r.Type == "MATCH" {
			matched = true
		}
		out = append(out, r.String())
	}
	return out, nil
}

// ParseLine parses one rule. ACTION is always required.
func ParseLine(line string) (Rule, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return Rule{}, ruleError("RULE_PARSE_ERROR", "规则类型不能为空", "", nil)
	}

	typ := strings.ToUpper(parts[0])
	switch typ {
	case "DOMAIN", "DOMAIN-SUFFIX", "DOMAIN-KEYWORD", "GEOIP", "RULE-SET":
		if len(parts) != 3 {
			return Rule{}, ruleError("RULE_PARSE_ERROR", "规则字段数量不合法", "expected: TYPE,VALUE,ACTION", nil)
		}
		if parts[1] == "" || parts[2] == "" {
			return Rule{}, ruleError("RULE_PARSE_ERROR", "规则 VALUE/ACTION 不能为空", "", nil)
		}
		return Rule{Type: typ, Value: parts[1], Action: parts[2]}, nil
	case "IP-CIDR", "IP-CIDR6":
		return parseCIDR(typ, parts)
	case "MATCH":
		if len(parts) != 2 || parts[1] == "" {
			return Rule{}, ruleError("RULE_PARSE_ERROR", "MATCH 规则必须是 MATCH,<ACTION>", "", nil)
		}
		return Rule{Type: "MATCH", Action: parts[1]}, nil
	default:
		return Rule{}, ruleError("UNSUPPORTED_RULE_TYPE", fmt.Sprintf("不支持的规则类型：%s", typ), "", nil)
	}
}

func parseCIDR(typ string, parts []string) (Rule, error) {
	hint := "expected: " + typ + ",CIDR,ACTION[,no-resolve]"
	if len(parts) != 3 && len(parts) != 4 {
		return Rule{}, ruleError("RULE_PARSE_ERROR", typ+" 规则字段数量不合法", hint, nil)
	}
	if parts[2] == "" || strings.EqualFold(parts[2], "no-resolve") {
		return Rule{}, ruleError("RULE_PARSE_ERROR", typ+" 缺少 ACTION", hint, nil)
	}
	noResolve := false
	if len(parts) == 4 {
		if !strings.EqualFold(parts[3], "no-resolve") {
			return Rule{}, ruleError("RULE_PARSE_ERROR", typ+" 的可选项仅支持 no-resolve", hint, nil)
		}
		noResolve = true
	}
	if err := validateCIDR(parts[1], typ == "IP-CIDR6"); err != nil {
		return Rule{}, ruleError("RULE_PARSE_ERROR", typ+" 的 CIDR 不合法", hint, err)
	}
	return Rule{Type: typ, Value: parts[1], Action: parts[2], NoResolve: noResolve}, nil
}

func validateCIDR(s string, v6 bool) error {
	ip, _, err := net.ParseCIDR(s)
	if err != nil {
		return err
	}
	if is4 := ip.To4() != nil; is4 == v6 {
		if v6 {
			return errors.New("not an ipv6 cidr")
		}
		return errors.New("not an ipv4 cidr")
	}
	return nil
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	if len(s) <= max {
		return s
	}
	return s[:max]
}

package rules

import "testing"

func FuzzParseLine(f *testing.F) {
	seed := []string{
		"",
		"MATCH,DIRECT",
		"DOMAIN,example.com,DIRECT",
		"DOMAIN-SUFFIX,example.com,PROXY",
		"DOMAIN-KEYWORD,google,REJECT",
		"GEOIP,CN,DIRECT",
		"RULE-SET,china-cn,回国",
		"PROCESS-NAME,WeChat,PROXY",
		"IP-CIDR,1.2.3.0/24,DIRECT,no-resolve",
		"IP-CIDR6,2001:db8::/32,REJECT,no-resolve",
	}
	for _, s := range seed {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, line string) {
		r, err := ParseLine(line)
		if err != nil {
			return
		}
		if r.Type == "" || r.Action == "" {
			t.Fatalf("incomplete rule %+v", r)
		}
		if r.Type != "MATCH" && r.Value == "" {
			t.Fatalf("empty rule value for type=%q", r.Type)
		}
		again, err := ParseLine(r.String())
		if err != nil || again != r {
			t.Fatalf("canonical form does not round-trip: %q -> %+v, %v", r.String(), again, err)
		}
	})
}

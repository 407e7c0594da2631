package hl7v2

import "testing"

func TestParseCX(t *testing.T) {
	tests := []struct {
		name      string
		cx        string
		wantValue string
		wantAuth  string
		wantErr   bool
	}{
		{"standard", "76cc765a442f410^^^&1.3.6.1.4.1.21367.2005.3.7&ISO", "76cc765a442f410", "1.3.6.1.4.1.21367.2005.3.7", false},
		{"xml escaped", "1234^^^&amp;1.2.3&amp;ISO", "1234", "1.2.3", false},
		{"no caret", "1234", "", "", true},
		{"no authority", "1234^^^", "", "", true},
		{"empty id", "^^^&1.2.3&ISO", "", "", true},
		{"empty authority", "1234^^^&&ISO", "", "", true},
		{"empty", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseCX(tt.cx)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCX(%q) expected error, got %+v", tt.cx, id)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCX(%q) returned error: %v", tt.cx, err)
			}
			if id.Value != tt.wantValue {
				t.Errorf("value = %q, want %q", id.Value, tt.wantValue)
			}
			if id.AssigningAuthority != tt.wantAuth {
				t.Errorf("assigning authority = %q, want %q", id.AssigningAuthority, tt.wantAuth)
			}
		})
	}
}

func TestParseXCN(t *testing.T) {
	p, err := ParseXCN("pro111^Dogg^Snoop^^^Dr^^^&1.2.3.4.5.6.7&ISO")
	if err != nil {
		t.Fatalf("ParseXCN returned error: %v", err)
	}
	if p.ID != "pro111" {
		t.Errorf("id = %q, want %q", p.ID, "pro111")
	}
	if p.FamilyName != "Dogg" || p.GivenName != "Snoop" {
		t.Errorf("name = %q %q, want Snoop Dogg", p.GivenName, p.FamilyName)
	}
	if p.DisplayName() != "Snoop Dogg" {
		t.Errorf("display name = %q, want %q", p.DisplayName(), "Snoop Dogg")
	}
}

func TestParseXCNNameOnly(t *testing.T) {
	p, err := ParseXCN("^Dogg^Snoop")
	if err != nil {
		t.Fatalf("ParseXCN returned error: %v", err)
	}
	if p.ID != "" {
		t.Errorf("id = %q, want empty", p.ID)
	}
	if p.FamilyName != "Dogg" || p.GivenName != "Snoop" {
		t.Errorf("name = %q %q, want Snoop Dogg", p.GivenName, p.FamilyName)
	}
}

func TestParseXCNEmpty(t *testing.T) {
	if _, err := ParseXCN(""); err == nil {
		t.Fatal("expected error for empty XCN")
	}
	if _, err := ParseXCN("^^"); err == nil {
		t.Fatal("expected error for XCN with no components")
	}
}

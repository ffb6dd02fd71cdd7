package domain

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+7 913 331-84-13", "79133318413"},
		{"79133318413", "79133318413"},
		{"(49) 123/456", "49123456"},
		{"", ""},
		{"abc", ""},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Fatalf("NormalizePhone(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestDisplayPhone(t *testing.T) {
	if got := DisplayPhone("4912"); got != "+4912" {
		t.Fatalf("want +4912, got %q", got)
	}
	if got := DisplayPhone(""); got != "неизвестный номер" {
		t.Fatalf("unexpected empty rendering %q", got)
	}
}

func TestAllowList_MergesDefaultsAndDedups(t *testing.T) {
	a := NewAllowList("+49 1234567890", "491234567890", "", DefaultStaff[0])
	got := a.Phones()
	if len(got) != 2 {
		t.Fatalf("want 2 phones, got %v", got)
	}
	if got[0] != DefaultStaff[0] || got[1] != "491234567890" {
		t.Fatalf("unexpected order: %v", got)
	}
	if a.Add("491234567890") {
		t.Fatalf("duplicate add should report false")
	}
	if !a.Add("4915112345678") || !a.Contains("4915112345678") {
		t.Fatalf("new phone should be added")
	}
}

func TestDirectory_Resolve(t *testing.T) {
	d := Directory{AdminPhone: "491700000000", Staff: NewAllowList("491711111111")}

	s, ok := d.Resolve("491700000000", "Boss")
	if !ok || s.Role != RoleManager {
		t.Fatalf("admin should resolve to manager, got %+v ok=%v", s, ok)
	}
	s, ok = d.Resolve("491711111111", "")
	if !ok || s.Role != RoleStaff {
		t.Fatalf("allow-listed phone should be staff, got %+v ok=%v", s, ok)
	}
	if _, ok := d.Resolve("491799999999", ""); ok {
		t.Fatalf("unknown phone must not resolve")
	}

	// manager is never gated by the allow-list
	noStaff := Directory{AdminPhone: "491700000000"}
	if s, ok := noStaff.Resolve("491700000000", ""); !ok || s.Role != RoleManager {
		t.Fatalf("manager must resolve without allow-list, got %+v", s)
	}
	// no admin configured: empty phone never matches
	if _, ok := (Directory{}).Resolve("", ""); ok {
		t.Fatalf("empty phone must not resolve")
	}
}

package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want Money
		ok   bool
	}{
		{"49.90", 4990, true},
		{"49.9", 4990, true},
		{"50", 5000, true},
		{".5", 50, true},
		{"0", 0, true},
		{"-3.25", -325, true},
		{"1.234", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{".", 0, false},
		{"92233720368547757.99", 9223372036854775799, true},
		{"92233720368547758", 0, false},
		{"184467440737095517", 0, false},
		{"-92233720368547758", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseMoney(%q): unexpected error %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("ParseMoney(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("ParseMoney(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var body struct {
		Price Money `json:"price"`
	}
	if err := json.Unmarshal([]byte(`{"price":"19.5"}`), &body); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if body.Price != 1950 {
		t.Fatalf("price = %d, want 1950", body.Price)
	}
	if err := json.Unmarshal([]byte(`{"price":20}`), &body); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	out, _ := json.Marshal(body)
	if string(out) != `{"price":20.00}` {
		t.Fatalf("marshal = %s", out)
	}
}

func TestEnumAliases(t *testing.T) {
	if r, ok := ParseRole("ADMINISTRATOR"); !ok || r != RoleAdministrator {
		t.Fatalf("ParseRole(ADMINISTRATOR) = %q, %v", r, ok)
	}
	if r, ok := ParseRole("Usuario"); !ok || r != RoleUser {
		t.Fatalf("ParseRole(Usuario) = %q, %v", r, ok)
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatal("ParseRole accepted an unknown role")
	}
	if d, ok := ParseWeekday("Miércoles"); !ok || d != Wednesday {
		t.Fatalf("ParseWeekday(Miércoles) = %q, %v", d, ok)
	}
	if p, ok := ParsePlanType("Monthly"); !ok || p != PlanMonthly {
		t.Fatalf("ParsePlanType(Monthly) = %q, %v", p, ok)
	}
	if g, ok := ParseGender("femenino"); !ok || g != GenderFemale {
		t.Fatalf("ParseGender(femenino) = %q, %v", g, ok)
	}
	if s, ok := ParseUserStatus("inactive"); !ok || s != UserInactive {
		t.Fatalf("ParseUserStatus(inactive) = %q, %v", s, ok)
	}
	if !RoleOther.IsClientRole() || RoleTeacher.IsClientRole() {
		t.Fatal("IsClientRole mismatch")
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan("2024-03-05"); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if d.String() != "2024-03-05" {
		t.Fatalf("date = %s", d)
	}
	if err := d.Scan([]byte("2024-03-06T00:00:00Z")); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if d.String() != "2024-03-06" {
		t.Fatalf("date = %s", d)
	}
	if err := d.Scan(time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("scan time: %v", err)
	}
	if d.String() != "2024-03-07" || d.Weekday() != Thursday {
		t.Fatalf("date = %s weekday = %s", d, d.Weekday())
	}
	if d.AddDays(30).String() != "2024-04-06" {
		t.Fatalf("AddDays = %s", d.AddDays(30))
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("9:30")
	if err != nil {
		t.Fatalf("ParseClock: %v", err)
	}
	if c != "09:30:00" {
		t.Fatalf("clock = %s", c)
	}
	end, _ := ParseClock("10:15:00")
	if !c.Before(end) || end.Before(c) {
		t.Fatal("Before mismatch")
	}
	if _, err := ParseClock("25:00"); err == nil {
		t.Fatal("expected error for 25:00")
	}
}

func TestMembershipUsableOn(t *testing.T) {
	start, _ := ParseDate("2024-01-01")
	end, _ := ParseDate("2024-01-31")
	zero, one := 0, 1
	m := ActiveMembership{Status: MembershipActive, StartDate: start, EndDate: &end, RemainingClasses: &one}

	mid, _ := ParseDate("2024-01-15")
	after, _ := ParseDate("2024-02-01")
	before, _ := ParseDate("2023-12-31")
	if !m.UsableOn(mid) {
		t.Fatal("expected usable mid-period")
	}
	if m.UsableOn(after) || m.UsableOn(before) {
		t.Fatal("expected unusable outside the period")
	}
	m.RemainingClasses = &zero
	if m.UsableOn(mid) {
		t.Fatal("expected unusable with zero classes left")
	}
	m.RemainingClasses = nil
	m.EndDate = nil
	if !m.UsableOn(after) || !m.Unlimited() {
		t.Fatal("expected unlimited open-ended membership to be usable")
	}
	m.Status = MembershipExpired
	if m.UsableOn(mid) {
		t.Fatal("expected expired membership to be unusable")
	}
}

func TestNullableUnmarshal(t *testing.T) {
	var body struct {
		A Nullable[int] `json:"a"`
		B Nullable[int] `json:"b"`
		C Nullable[int] `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":null,"b":4}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.A.Set || body.A.Value != nil {
		t.Fatalf("a = %+v, want set to null", body.A)
	}
	if !body.B.Set || body.B.Value == nil || *body.B.Value != 4 {
		t.Fatalf("b = %+v", body.B)
	}
	if body.C.Set {
		t.Fatalf("c = %+v, want unset", body.C)
	}
	if err := json.Unmarshal([]byte(`{"a":"x"}`), &body); err == nil {
		t.Fatal("expected type error")
	}
}

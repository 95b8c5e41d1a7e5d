package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		wantCents int64
		wantErr   bool
	}{
		{in: "42.50", want: "42.50", wantCents: 4250},
		{in: "42.5", want: "42.50", wantCents: 4250},
		{in: " 7 ", want: "7.00", wantCents: 700},
		{in: "0.005", want: "0.01", wantCents: 1},
		{in: "-0.005", want: "-0.01", wantCents: -1},
		{in: "19.994", want: "19.99", wantCents: 1999},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "12,50", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMoney(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrNotNumeric) {
					t.Fatalf("want ErrNotNumeric, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.String() != tt.want {
				t.Fatalf("want %s, got %s", tt.want, m)
			}
			if m.Cents() != tt.wantCents {
				t.Fatalf("want %d cents, got %d", tt.wantCents, m.Cents())
			}
		})
	}
}

func TestMaxAmount(t *testing.T) {
	if got := MaxAmount.String(); got != "1000000000000.00" {
		t.Fatalf("MaxAmount = %s", got)
	}
	over, _ := ParseMoney("1000000000000.01")
	if !over.GreaterThan(MaxAmount) || MaxAmount.GreaterThan(MaxAmount) {
		t.Fatalf("GreaterThan is off at the boundary")
	}
	huge, _ := ParseMoney("184467440737095516.17")
	if !huge.GreaterThan(MaxAmount) {
		t.Fatalf("%s should exceed MaxAmount", huge)
	}
}

func TestMoney_AddIsExact(t *testing.T) {
	var sum Money
	tenth, _ := ParseMoney("0.10")
	for i := 0; i < 1000; i++ {
		sum = sum.Add(tenth)
	}
	if sum.String() != "100.00" {
		t.Fatalf("want 100.00, got %s", sum)
	}
}

func TestMoney_JSON(t *testing.T) {
	var in struct {
		Amount Money `json:"amount"`
	}
	for _, body := range []string{`{"amount":42.50}`, `{"amount":"42.5"}`} {
		if err := json.Unmarshal([]byte(body), &in); err != nil {
			t.Fatalf("unmarshal %s: %v", body, err)
		}
		if in.Amount.Cents() != 4250 {
			t.Fatalf("unmarshal %s: got %s", body, in.Amount)
		}
	}

	out, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"amount":42.50}` {
		t.Fatalf("unexpected json %s", out)
	}

	if err := json.Unmarshal([]byte(`{"amount":"ten"}`), &in); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
	if err := json.Unmarshal([]byte(`{"amount":true}`), &in); err == nil {
		t.Fatalf("expected error for boolean amount")
	}
}

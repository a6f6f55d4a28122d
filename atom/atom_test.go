package atom

import "testing"

func TestMkLitRoundTrip(t *testing.T) {
	cases := []struct {
		a       Atom
		negated bool
	}{
		{0, false},
		{0, true},
		{41, false},
		{41, true},
	}
	for _, c := range cases {
		l := MkLit(c.a, c.negated)
		if l.Var() != c.a {
			t.Fatalf("Var() = %d, want %d", l.Var(), c.a)
		}
		if l.Sign() != c.negated {
			t.Fatalf("Sign() = %v, want %v", l.Sign(), c.negated)
		}
		if l.Negate().Negate() != l {
			t.Fatalf("double negate not idempotent for %v", l)
		}
		if l.Negate().Sign() == l.Sign() {
			t.Fatalf("Negate() did not flip sign for %v", l)
		}
	}
}

func TestDimacsRoundTrip(t *testing.T) {
	for _, d := range []int{1, -1, 7, -7, 1000, -1000} {
		l := FromDimacs(d)
		if got := l.Dimacs(); got != d {
			t.Fatalf("FromDimacs(%d).Dimacs() = %d, want %d", d, got, d)
		}
	}
}

func TestRemapper(t *testing.T) {
	r := NewRemapper()
	a1 := r.Intern(42)
	a2 := r.Intern(7)
	a1again := r.Intern(42)

	if a1 != a1again {
		t.Fatalf("Intern not idempotent: %d != %d", a1, a1again)
	}
	if a1 == a2 {
		t.Fatalf("distinct user atoms mapped to same internal atom")
	}

	u, ok := r.UserAtom(a1)
	if !ok || u != 42 {
		t.Fatalf("UserAtom(%d) = (%d, %v), want (42, true)", a1, u, ok)
	}

	if _, ok := r.UserAtom(Atom(999)); ok {
		t.Fatalf("UserAtom should fail for unknown internal atom")
	}
}

func TestLBoolFromBool(t *testing.T) {
	if FromBool(true) != LTrue {
		t.Fatalf("FromBool(true) != LTrue")
	}
	if FromBool(false) != LFalse {
		t.Fatalf("FromBool(false) != LFalse")
	}
	if LUndef.String() != "undef" {
		t.Fatalf("LUndef.String() = %q", LUndef.String())
	}
}

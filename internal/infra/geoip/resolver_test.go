package geoip

import (
	"errors"
	"net"
	"testing"

	"github.com/oschwald/geoip2-golang"
)

type fakeReader struct {
	codes   map[string]string
	lookups int
}

func (f *fakeReader) Country(ip net.IP) (*geoip2.Country, error) {
	f.lookups++
	code, ok := f.codes[ip.String()]
	if !ok {
		return nil, errors.New("not found")
	}
	rec := &geoip2.Country{}
	rec.Country.IsoCode = code
	return rec, nil
}

func (f *fakeReader) Close() error { return nil }

func TestNewResolverEmptyPathDisablesLookups(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil || r != nil {
		t.Fatalf("NewResolver(\"\") = %v, %v, want nil, nil", r, err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close on nil resolver: %v", err)
	}
	if _, err := r.Lookup("8.8.8.8"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Lookup on nil resolver err = %v, want ErrUnavailable", err)
	}
}

func TestNewResolverMissingFile(t *testing.T) {
	if _, err := NewResolver("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatal("NewResolver with a missing file returned nil error")
	}
}

func TestLookup(t *testing.T) {
	reader := &fakeReader{codes: map[string]string{
		"36.66.1.1":    "ID",
		"2001:4860::1": "US",
	}}
	r := &Resolver{reader: reader}

	tests := []struct {
		remote string
		want   string
	}{
		{remote: "36.66.1.1", want: "ID"},
		{remote: "36.66.1.1:51234", want: "ID"},
		{remote: "::ffff:36.66.1.1", want: "ID"},
		{remote: "[2001:4860::1]:443", want: "US"},
		{remote: "2001:4860::1", want: "US"},
	}
	for _, tc := range tests {
		got, err := r.Lookup(tc.remote)
		if err != nil {
			t.Fatalf("Lookup(%q) returned error: %v", tc.remote, err)
		}
		if got != tc.want {
			t.Fatalf("Lookup(%q) = %q, want %q", tc.remote, got, tc.want)
		}
	}
}

func TestLookupSkipsNonPublicAddresses(t *testing.T) {
	reader := &fakeReader{}
	r := &Resolver{reader: reader}
	for _, remote := range []string{"127.0.0.1", "10.1.2.3:8080", "192.168.0.10", "::1", "fe80::1", "0.0.0.0"} {
		got, err := r.Lookup(remote)
		if err != nil || got != "" {
			t.Fatalf("Lookup(%q) = %q, %v, want empty", remote, got, err)
		}
	}
	if reader.lookups != 0 {
		t.Fatalf("database consulted %d times for non-public addresses", reader.lookups)
	}
}

func TestLookupRejectsGarbage(t *testing.T) {
	r := &Resolver{reader: &fakeReader{}}
	for _, remote := range []string{"", "not-an-ip", "300.1.1.1"} {
		if _, err := r.Lookup(remote); err == nil {
			t.Fatalf("Lookup(%q) returned nil error", remote)
		}
	}
}

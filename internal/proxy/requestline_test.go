package proxy

import (
	"errors"
	"testing"
)

func TestParseRequestLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    RequestLine
		wantErr error
	}{
		{
			name: "connect",
			in:   "CONNECT example.com:443 HTTP/1.1\r\nHost: example.com:443\r\n\r\n",
			want: RequestLine{Method: "CONNECT", Target: "example.com:443", Version: "HTTP/1.1"},
		},
		{
			name: "absolute uri",
			in:   "GET http://example.test/a/b?c=d HTTP/1.1\r\nHost: example.test\r\n\r\n",
			want: RequestLine{Method: "GET", Target: "http://example.test/a/b?c=d", Version: "HTTP/1.1"},
		},
		{
			name: "bare lf",
			in:   "POST http://example.test/ HTTP/1.0\nHost: example.test\n\n",
			want: RequestLine{Method: "POST", Target: "http://example.test/", Version: "HTTP/1.0"},
		},
		{
			name: "no version",
			in:   "GET example.test\r\n",
			want: RequestLine{Method: "GET", Target: "example.test"},
		},
		{
			name: "extra whitespace",
			in:   "  GET \t example.test   HTTP/1.1 \r\n",
			want: RequestLine{Method: "GET", Target: "example.test", Version: "HTTP/1.1"},
		},
		{
			name: "no line break",
			in:   "CONNECT example.com HTTP/1.1",
			want: RequestLine{Method: "CONNECT", Target: "example.com", Version: "HTTP/1.1"},
		},
		{
			name:    "empty",
			in:      "",
			wantErr: ErrEmptyRequest,
		},
		{
			name:    "single token",
			in:      "GET\r\nHost: example.test\r\n\r\n",
			wantErr: ErrMalformedRequest,
		},
		{
			name:    "blank first line",
			in:      "\r\nGET http://example.test/ HTTP/1.1\r\n",
			wantErr: ErrMalformedRequest,
		},
		{
			name:    "invalid utf-8",
			in:      "GET http://example.test/\xff HTTP/1.1\r\n",
			wantErr: ErrMalformedRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseRequestLine([]byte(tt.in))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err=%v want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %+v want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestLineIsConnect(t *testing.T) {
	t.Parallel()

	for method, want := range map[string]bool{
		"CONNECT":  true,
		"connect":  true,
		"Connect":  true,
		"GET":      false,
		"POST":     false,
		"CONNECTX": false,
	} {
		if got := (RequestLine{Method: method}).IsConnect(); got != want {
			t.Errorf("%q: got %v want %v", method, got, want)
		}
	}
}

func TestRequestLineUpstream(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rl      RequestLine
		want    string
		wantErr bool
	}{
		{
			name: "connect with port",
			rl:   RequestLine{Method: "CONNECT", Target: "example.com:8443"},
			want: "example.com:8443",
		},
		{
			name: "connect default port",
			rl:   RequestLine{Method: "CONNECT", Target: "example.com"},
			want: "example.com:443",
		},
		{
			name: "connect lowercase method",
			rl:   RequestLine{Method: "connect", Target: "example.com:22"},
			want: "example.com:22",
		},
		{
			name: "connect ipv6",
			rl:   RequestLine{Method: "CONNECT", Target: "[::1]:8443"},
			want: "[::1]:8443",
		},
		{
			name: "connect empty port",
			rl:   RequestLine{Method: "CONNECT", Target: "example.com:"},
			want: "example.com:443",
		},
		{
			name:    "connect non-numeric port",
			rl:      RequestLine{Method: "CONNECT", Target: "example.com:https"},
			wantErr: true,
		},
		{
			name:    "connect port out of range",
			rl:      RequestLine{Method: "CONNECT", Target: "example.com:65536"},
			wantErr: true,
		},
		{
			name:    "connect missing host",
			rl:      RequestLine{Method: "CONNECT", Target: ":443"},
			wantErr: true,
		},
		{
			name: "absolute uri",
			rl:   RequestLine{Method: "GET", Target: "http://example.test/index.html"},
			want: "example.test:80",
		},
		{
			name: "https scheme still port 80",
			rl:   RequestLine{Method: "GET", Target: "https://example.test/"},
			want: "example.test:80",
		},
		{
			name: "no scheme",
			rl:   RequestLine{Method: "HEAD", Target: "example.test/path"},
			want: "example.test:80",
		},
		{
			name: "host only",
			rl:   RequestLine{Method: "GET", Target: "http://example.test"},
			want: "example.test:80",
		},
		{
			name: "port in url is not honored",
			rl:   RequestLine{Method: "GET", Target: "http://example.test:8080/"},
			want: "[example.test:8080]:80",
		},
		{
			name:    "origin form",
			rl:      RequestLine{Method: "GET", Target: "/index.html"},
			wantErr: true,
		},
		{
			name:    "scheme only",
			rl:      RequestLine{Method: "GET", Target: "http://"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.rl.Upstream()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRequest) {
					t.Fatalf("expected ErrMalformedRequest, got %v", err)
				}
				return
			}
			if got.String() != tt.want {
				t.Fatalf("got %q want %q", got.String(), tt.want)
			}
		})
	}
}

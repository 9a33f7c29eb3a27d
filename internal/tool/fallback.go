package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/webstrike/webstrike/internal/model"
)

// probePorts are the TCP ports checked by the port sweep probe.
// Covers common web, database, and remote-access services seen on
// lab targets.
var probePorts = []int{
	21, 22, 23, 25, 80, 110, 143, 443, 445,
	3000, 3306, 3389, 5432, 5900, 6379, 8000, 8080, 8443, 9200, 27017,
}

// riskyServices maps ports to services that should not be exposed on a
// web application host.
var riskyServices = map[int]string{
	21:    "ftp",
	23:    "telnet",
	445:   "smb",
	3306:  "mysql",
	3389:  "rdp",
	5432:  "postgresql",
	5900:  "vnc",
	6379:  "redis",
	9200:  "elasticsearch",
	27017: "mongodb",
}

// probeSubdomainLabels are the host labels tried by the subdomain probe.
var probeSubdomainLabels = []string{
	"www", "api", "admin", "dev", "staging", "test", "mail", "vpn", "shop",
}

// securityHeaders are response headers whose absence is reported by the
// web probes. HSTS is only checked on HTTPS targets.
var securityHeaders = []string{
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Content-Security-Policy",
	"Referrer-Policy",
}

// interestingPaths are checked by the template-scan probe. These paths
// commonly expose configuration, source, or internal state.
var interestingPaths = []string{
	"/robots.txt",
	"/.git/config",
	"/.env",
	"/metrics",
	"/ftp",
	"/backup",
	"/server-status",
}

// sqlErrorSignatures identify database errors leaking into HTTP responses.
var sqlErrorSignatures = []string{
	"SQL syntax",
	"SQLITE_ERROR",
	"sqlite3",
	"SequelizeDatabaseError",
	"PostgreSQL query failed",
	"ORA-01756",
	"Unclosed quotation mark",
}

// maxProbePasswords bounds how many candidate passwords the credential
// probe tries. The probe validates password policy, it does not brute
// force; a handful of attempts keeps the target's account lockout happy.
const maxProbePasswords = 10

// Prober implements lightweight built-in checks that stand in for
// missing tool binaries.
//
// Design decision: We use a struct with a shared http.Client rather than
// creating clients per probe because:
//  1. Client configuration (timeouts, redirects) should be consistent
//  2. Connection pooling works better with a shared client
//  3. Easier to test with httptest servers
type Prober struct {
	// client is used for all HTTP probes.
	client *http.Client

	// userAgent is sent with every HTTP probe request.
	userAgent string

	// dialTimeout bounds each TCP connect attempt in the port sweep.
	dialTimeout time.Duration

	// resolver performs DNS lookups for the subdomain probe.
	resolver *net.Resolver

	// maxBody limits how much of a response body each probe reads.
	maxBody int64

	// logger receives probe progress logs.
	logger *slog.Logger
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProberClient sets the HTTP client used by web probes.
func WithProberClient(client *http.Client) ProberOption {
	return func(p *Prober) {
		p.client = client
	}
}

// WithProberUserAgent sets the User-Agent header for HTTP probes.
func WithProberUserAgent(ua string) ProberOption {
	return func(p *Prober) {
		p.userAgent = ua
	}
}

// WithProberDialTimeout sets the per-port TCP connect timeout.
func WithProberDialTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		p.dialTimeout = d
	}
}

// WithProberLogger sets the logger for probe progress logs.
func WithProberLogger(logger *slog.Logger) ProberOption {
	return func(p *Prober) {
		p.logger = logger
	}
}

// NewProber creates a Prober with the given options.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent:   "WebStrike/1.0 (+https://github.com/webstrike/webstrike)",
		dialTimeout: 3 * time.Second,
		resolver:    net.DefaultResolver,
		maxBody:     5 * 1024 * 1024, // 5MB
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Probe runs the built-in check standing in for the named tool.
// It returns the human-readable probe output and any findings.
func (p *Prober) Probe(ctx context.Context, td *Tool, target *model.Target, opts RunOptions) (string, []model.Finding, error) {
	switch td.Name {
	case "nmap":
		return p.probePortSweep(ctx, target)
	case "amass":
		return p.probeSubdomains(ctx, target)
	case "nikto", "zap":
		return p.probeWeb(ctx, td.Name, target)
	case "nuclei":
		return p.probePaths(ctx, target)
	case "sqlmap":
		return p.probeSQLInjection(ctx, target)
	case "hydra":
		return p.probeCredentials(ctx, target, opts)
	case "metasploit", "bloodhound", "crackmapexec":
		return p.probeReachability(ctx, td.Name, target)
	default:
		return "", nil, fmt.Errorf("no built-in probe for tool %q", td.Name)
	}
}

// probePortSweep performs a TCP connect sweep over common ports.
func (p *Prober) probePortSweep(ctx context.Context, target *model.Target) (string, []model.Finding, error) {
	var out strings.Builder
	var findings []model.Finding

	fmt.Fprintf(&out, "port sweep against %s\n", target.Host)

	ports := append([]int(nil), probePorts...)
	if !slices.Contains(ports, target.Port) {
		ports = append(ports, target.Port)
	}
	slices.Sort(ports)

	dialer := &net.Dialer{Timeout: p.dialTimeout}
	open := 0
	for _, port := range ports {
		if ctx.Err() != nil {
			return out.String(), findings, ctx.Err()
		}

		addr := net.JoinHostPort(target.Host, fmt.Sprintf("%d", port))
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			continue
		}
		_ = conn.Close()
		open++
		fmt.Fprintf(&out, "%d/tcp open\n", port)

		f := model.NewFinding("nmap", "open-port",
			fmt.Sprintf("Open TCP port %d", port),
			fmt.Sprintf("Port %d on %s accepts TCP connections.", port, target.Host))
		f.Location = addr
		findings = append(findings, f)

		if svc, risky := riskyServices[port]; risky {
			rf := model.NewFinding("nmap", "risky-service",
				fmt.Sprintf("Exposed %s service on port %d", svc, port),
				fmt.Sprintf("The %s service on port %d is reachable from the scanning host. Database and remote-access services should not be exposed alongside a web application.", svc, port))
			rf.Location = addr
			findings = append(findings, rf)
		}
	}

	if open == 0 {
		fmt.Fprintf(&out, "no open ports found (host may be down or filtered)\n")
	}

	return out.String(), findings, nil
}

// probeSubdomains resolves common labels under the target's domain.
func (p *Prober) probeSubdomains(ctx context.Context, target *model.Target) (string, []model.Finding, error) {
	var out strings.Builder
	var findings []model.Finding

	if net.ParseIP(target.Host) != nil {
		fmt.Fprintf(&out, "subdomain enumeration skipped: %s is an IP address\n", target.Host)
		return out.String(), nil, nil
	}

	fmt.Fprintf(&out, "subdomain enumeration for %s\n", target.Host)

	for _, label := range probeSubdomainLabels {
		if ctx.Err() != nil {
			return out.String(), findings, ctx.Err()
		}

		host := label + "." + target.Host
		addrs, err := p.resolver.LookupHost(ctx, host)
		if err != nil || len(addrs) == 0 {
			continue
		}

		fmt.Fprintf(&out, "%s resolves to %s\n", host, strings.Join(addrs, ", "))

		f := model.NewFinding("amass", "subdomain-discovered",
			fmt.Sprintf("Subdomain %s", host),
			fmt.Sprintf("The host %s resolves to %s and may widen the attack surface.", host, strings.Join(addrs, ", ")))
		f.Location = host
		findings = append(findings, f)
	}

	return out.String(), findings, nil
}

// probeWeb fetches the target page and inspects headers and HTML for
// common misconfigurations.
func (p *Prober) probeWeb(ctx context.Context, toolName string, target *model.Target) (string, []model.Finding, error) {
	var out strings.Builder
	var findings []model.Finding

	resp, body, err := p.get(ctx, target.URL())
	if err != nil {
		return out.String(), nil, err
	}

	fmt.Fprintf(&out, "GET %s -> %d\n", target.URL(), resp.StatusCode)

	// Header inspection
	if server := resp.Header.Get("Server"); server != "" {
		fmt.Fprintf(&out, "Server: %s\n", server)
		f := model.NewFinding(toolName, "server-disclosure",
			"Server version disclosed",
			fmt.Sprintf("The Server header reveals %q, which helps attackers pick version-specific exploits.", server))
		f.Evidence = "Server: " + server
		f.Location = target.URL()
		findings = append(findings, f)
	}
	if powered := resp.Header.Get("X-Powered-By"); powered != "" {
		fmt.Fprintf(&out, "X-Powered-By: %s\n", powered)
		f := model.NewFinding(toolName, "server-disclosure",
			"Technology stack disclosed",
			fmt.Sprintf("The X-Powered-By header reveals %q.", powered))
		f.Evidence = "X-Powered-By: " + powered
		f.Location = target.URL()
		findings = append(findings, f)
	}

	headers := append([]string(nil), securityHeaders...)
	if target.Scheme == "https" {
		headers = append(headers, "Strict-Transport-Security")
	}
	for _, h := range headers {
		if resp.Header.Get(h) != "" {
			continue
		}
		fmt.Fprintf(&out, "missing header: %s\n", h)
		f := model.NewFinding(toolName, "missing-security-header",
			fmt.Sprintf("Missing %s header", h),
			fmt.Sprintf("The response does not set the %s header.", h))
		f.Location = target.URL()
		findings = append(findings, f)
	}

	// HTML inspection
	findings = append(findings, p.inspectHTML(toolName, target, body, &out)...)

	return out.String(), findings, nil
}

// inspectHTML parses the response body and reports directory indexes and
// login forms served over plain HTTP.
func (p *Prober) inspectHTML(toolName string, target *model.Target, body []byte, out *strings.Builder) []model.Finding {
	var findings []model.Finding

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var title string
	var hasPasswordInput bool

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = n.FirstChild.Data
				}
			case "input":
				for _, attr := range n.Attr {
					if attr.Key == "type" && strings.EqualFold(attr.Val, "password") {
						hasPasswordInput = true
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if strings.HasPrefix(title, "Index of ") {
		fmt.Fprintf(out, "directory index detected: %s\n", title)
		f := model.NewFinding(toolName, "directory-indexing",
			"Directory listing enabled",
			fmt.Sprintf("The page titled %q exposes a directory listing.", title))
		f.Evidence = title
		f.Location = target.URL()
		findings = append(findings, f)
	}

	if hasPasswordInput && target.Scheme == "http" {
		fmt.Fprintf(out, "password form served over plain HTTP\n")
		f := model.NewFinding(toolName, "tls-misconfiguration",
			"Login form served over plain HTTP",
			"A password input is served over an unencrypted connection, exposing credentials to interception.")
		f.Location = target.URL()
		findings = append(findings, f)
	}

	return findings
}

// probePaths checks well-known sensitive paths, approximating a
// template-based scanner.
func (p *Prober) probePaths(ctx context.Context, target *model.Target) (string, []model.Finding, error) {
	var out strings.Builder
	var findings []model.Finding
	reachable := false

	for _, path := range interestingPaths {
		if ctx.Err() != nil {
			return out.String(), findings, ctx.Err()
		}

		url := target.URL() + path
		resp, _, err := p.get(ctx, url)
		if err != nil {
			continue
		}
		reachable = true

		fmt.Fprintf(&out, "GET %s -> %d\n", url, resp.StatusCode)
		if resp.StatusCode != http.StatusOK {
			continue
		}

		f := model.NewFinding("nuclei", "interesting-file",
			fmt.Sprintf("Accessible path %s", path),
			fmt.Sprintf("The path %s returned HTTP 200 and may expose internal information.", path))
		f.Location = url
		findings = append(findings, f)
	}

	if !reachable {
		return out.String(), nil, fmt.Errorf("target %s is unreachable", target.URL())
	}

	return out.String(), findings, nil
}

// probeSQLInjection sends a quote-breaking payload and looks for database
// errors leaking into the response.
func (p *Prober) probeSQLInjection(ctx context.Context, target *model.Target) (string, []model.Finding, error) {
	var out strings.Builder
	var findings []model.Finding

	// Baseline request first so an already-broken page does not produce
	// a false positive.
	baseURL := target.URL() + "/?q=webstrike"
	_, baseBody, err := p.get(ctx, baseURL)
	if err != nil {
		return out.String(), nil, err
	}

	payloadURL := target.URL() + "/?q=webstrike%27"
	resp, body, err := p.get(ctx, payloadURL)
	if err != nil {
		return out.String(), nil, err
	}

	fmt.Fprintf(&out, "GET %s -> %d\n", payloadURL, resp.StatusCode)

	for _, sig := range sqlErrorSignatures {
		if !bytes.Contains(body, []byte(sig)) || bytes.Contains(baseBody, []byte(sig)) {
			continue
		}

		fmt.Fprintf(&out, "database error signature in response: %s\n", sig)
		f := model.NewFinding("sqlmap", "sql-injection",
			"Database error triggered by quote payload",
			"A single-quote payload produced a database error in the response, indicating unsanitized input reaching the query layer.")
		f.Evidence = sig
		f.Location = payloadURL
		findings = append(findings, f)
		break
	}

	if len(findings) == 0 {
		fmt.Fprintf(&out, "no database error signatures in response\n")
	}

	return out.String(), findings, nil
}

// probeCredentials tries a handful of candidate passwords against the
// application login endpoint.
func (p *Prober) probeCredentials(ctx context.Context, target *model.Target, opts RunOptions) (string, []model.Finding, error) {
	var out strings.Builder
	var findings []model.Finding

	passwords, err := readPasswords(opts.PasswordFile, maxProbePasswords)
	if err != nil {
		return "", nil, fmt.Errorf("read password file: %w", err)
	}
	if len(passwords) == 0 {
		return "", nil, fmt.Errorf("password file %s is empty", opts.PasswordFile)
	}

	loginURL := target.URL() + "/rest/user/login"
	fmt.Fprintf(&out, "credential check against %s for user %s (%d candidates)\n",
		loginURL, opts.Username, len(passwords))

	for i, password := range passwords {
		if ctx.Err() != nil {
			return out.String(), findings, ctx.Err()
		}

		payload, err := json.Marshal(map[string]string{
			"email":    opts.Username,
			"password": password,
		})
		if err != nil {
			return out.String(), findings, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(payload))
		if err != nil {
			return out.String(), findings, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", p.userAgent)

		resp, err := p.client.Do(req)
		if err != nil {
			return out.String(), findings, err
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, p.maxBody))
		_ = resp.Body.Close()

		// Password values never appear in output; only their index.
		fmt.Fprintf(&out, "attempt %d -> %d\n", i+1, resp.StatusCode)

		if resp.StatusCode == http.StatusOK {
			f := model.NewFinding("hydra", "weak-credentials",
				fmt.Sprintf("Account %s accepts a wordlist password", opts.Username),
				fmt.Sprintf("The account %s authenticated with candidate password #%d from the supplied wordlist.", opts.Username, i+1))
			f.Location = loginURL
			findings = append(findings, f)
			break
		}
	}

	if len(findings) == 0 {
		f := model.NewFinding("hydra", "credential-validation",
			fmt.Sprintf("Account %s rejected all candidate passwords", opts.Username),
			fmt.Sprintf("None of the %d candidate passwords authenticated; the login endpoint rejected every attempt.", len(passwords))).
			WithSeverity(model.SeverityInfo)
		f.Location = loginURL
		findings = append(findings, f)
	}

	return out.String(), findings, nil
}

// probeReachability verifies the target accepts TCP connections. Used
// for tools whose real work has no meaningful built-in substitute.
func (p *Prober) probeReachability(ctx context.Context, toolName string, target *model.Target) (string, []model.Finding, error) {
	var out strings.Builder

	dialer := &net.Dialer{Timeout: p.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", target.HostPort())
	if err != nil {
		return "", nil, fmt.Errorf("target %s unreachable: %w", target.HostPort(), err)
	}
	_ = conn.Close()

	fmt.Fprintf(&out, "%s probe: %s accepts TCP connections; full %s functionality requires the real binary\n",
		toolName, target.HostPort(), toolName)

	return out.String(), nil, nil
}

// get performs a GET request and returns the response and a size-limited
// body. The response body is always closed.
func (p *Prober) get(ctx context.Context, url string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	if err != nil {
		return resp, nil, err
	}

	return resp, body, nil
}

// readPasswords reads up to limit passwords from the file, one per line.
// Blank lines and lines starting with '#' are skipped.
func readPasswords(path string, limit int) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided wordlist path is intentional
	if err != nil {
		return nil, err
	}

	var passwords []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		passwords = append(passwords, line)
		if len(passwords) == limit {
			break
		}
	}
	return passwords, nil
}

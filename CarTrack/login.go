package CarTrack

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
)

// Legacy fleet portal the tracking units report into. It has no API; position
// data is read off the fleet status page after a form login.
const baseURL = "https://fleetweb.cartrack.co.za"

// ClientConfig holds the portal credentials
type ClientConfig struct {
	Username string
	Password string
}

// AuthenticatedClients wraps an HTTP client and a colly collector sharing one
// logged-in cookie jar
type AuthenticatedClients struct {
	HttpClient *http.Client
	Collector  *colly.Collector
}

// getCSRFToken pulls the hidden csrf field off the login form
func getCSRFToken(client *http.Client) (string, error) {
	response, err := client.Get(baseURL + "/login")
	if err != nil {
		return "", fmt.Errorf("error fetching login page: %w", err)
	}
	defer response.Body.Close()

	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return "", fmt.Errorf("error loading login page body: %w", err)
	}

	token, exists := document.Find("input[name='csrf_token']").Attr("value")
	if !exists {
		return "", fmt.Errorf("could not find csrf token in login page")
	}
	return token, nil
}

// Login performs the form login and returns clients carrying the session
// cookies
func Login(config ClientConfig) (*AuthenticatedClients, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("error creating cookie jar: %w", err)
	}

	// The portal runs an old TLS stack behind a misconfigured proxy
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	httpClient := &http.Client{
		Jar:       jar,
		Transport: transport,
		Timeout:   30 * time.Second,
	}

	token, err := getCSRFToken(httpClient)
	if err != nil {
		return nil, err
	}

	data := url.Values{
		"csrf_token": {token},
		"username":   {config.Username},
		"password":   {config.Password},
	}
	req, err := http.NewRequest("POST", baseURL+"/login", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusFound {
		return nil, fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}

	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	collector.WithTransport(&http.Transport{
		TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
		ForceAttemptHTTP2: false,
	})
	collector.SetCookieJar(jar)

	return &AuthenticatedClients{
		HttpClient: httpClient,
		Collector:  collector,
	}, nil
}

// GetClients logs in with credentials from the environment
func GetClients() (*AuthenticatedClients, error) {
	username := os.Getenv("CARTRACK_USERNAME")
	password := os.Getenv("CARTRACK_PASSWORD")
	if username == "" || password == "" {
		return nil, fmt.Errorf("CARTRACK_USERNAME and CARTRACK_PASSWORD must be set")
	}
	return Login(ClientConfig{Username: username, Password: password})
}

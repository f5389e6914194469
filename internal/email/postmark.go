package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/dukerupert/wg/internal/model"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	endpoint    string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithEndpoint points the client at another Postmark-compatible API.
func WithEndpoint(url string) Option {
	return func(cl *Client) {
		cl.endpoint = url
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     strings.TrimRight(baseURL, "/"),
		endpoint:    postmarkURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

type lowScoreText struct {
	subject  string
	greeting string
	intro    string
	outro    string
}

var lowScoreTexts = map[model.Language]lowScoreText{
	model.LanguageEnglish: {
		subject:  "Your chore score is falling behind",
		greeting: "Hi %s,",
		intro:    "your score is well below the average of your flatmates on these chore lists:",
		outro:    "Have a look at what is due:",
	},
	model.LanguageGerman: {
		subject:  "Dein Punktestand hängt hinterher",
		greeting: "Hallo %s,",
		intro:    "dein Punktestand liegt deutlich unter dem Durchschnitt deiner Mitbewohner auf diesen Listen:",
		outro:    "Schau nach, was ansteht:",
	},
}

// SendLowScore tells a user that they are behind on the given chore lists,
// in the user's language.
func (c *Client) SendLowScore(ctx context.Context, to model.User, lists []model.ChoreList) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}
	text, ok := lowScoreTexts[to.Language]
	if !ok {
		text = lowScoreTexts[model.LanguageEnglish]
	}

	var plain, rich strings.Builder
	fmt.Fprintf(&plain, text.greeting+"\n\n%s\n\n", to.Name, text.intro)
	fmt.Fprintf(&rich, "<p>"+text.greeting+"</p><p>%s</p><ul>", html.EscapeString(to.Name), text.intro)
	for _, l := range lists {
		link := fmt.Sprintf("%s/chore-lists/%s", c.baseURL, l.ID)
		fmt.Fprintf(&plain, "- %s: %s\n", l.Name, link)
		fmt.Fprintf(&rich, `<li><a href="%s">%s</a></li>`, link, html.EscapeString(l.Name))
	}
	fmt.Fprintf(&plain, "\n%s %s\n", text.outro, c.baseURL)
	fmt.Fprintf(&rich, `</ul><p>%s <a href="%s">%s</a></p>`, text.outro, c.baseURL, c.baseURL)

	return c.send(ctx, postmarkEmail{
		From:     c.fromEmail,
		To:       to.Email,
		Subject:  text.subject,
		HtmlBody: rich.String(),
		TextBody: plain.String(),
		Tag:      model.NotifTypeLowScore,
	})
}

func (c *Client) send(ctx context.Context, payload postmarkEmail) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}

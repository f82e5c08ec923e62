package courseware

import (
	"bytes"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"context"

	"gradewatch/lib/restyutil"
	"gradewatch/lib/snapshotstore"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/courseware")

var InvalidCredentials = errors.New("incorrect username or password")

// ErrStudentNotFound is returned by Fetch when the results table has no
// row for the requested student id.
var ErrStudentNotFound = errors.New("student not found in results table")

type Options struct {
	// ResultsUrl is the course results page guarded by Shibboleth SSO.
	ResultsUrl string
	Username   string
	Password   string
	// CookieFile, when set, persists session cookies across restarts so
	// most cycles skip the SSO round trip entirely.
	CookieFile string
	// Output enables request/response dumps via restyutil, may be nil.
	Output restyutil.InstrumentOutput
}

// Client fetches the course results page and parses it into per-student
// snapshots. It owns a single authenticated session and is therefore not
// safe for concurrent use; the poll loop accesses it sequentially.
type Client struct {
	resultsUrl *url.URL
	username   string
	password   string
	cookieFile string
	http       *resty.Client
}

func NewClient(opts Options) (*Client, error) {
	resultsUrl, err := url.Parse(opts.ResultsUrl)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetTimeout(time.Second * 30)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	restyutil.InstrumentClient(client, tracer, opts.Output)

	c := &Client{
		resultsUrl: resultsUrl,
		username:   opts.Username,
		password:   opts.Password,
		cookieFile: opts.CookieFile,
		http:       client,
	}
	c.loadCookies()

	return c, nil
}

// FetchResults downloads the results page, re-authenticating through the
// SSO portal when the session has expired, and parses the table into
// snapshots keyed by student id.
func (c *Client) FetchResults(ctx context.Context) (map[string]snapshotstore.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "FetchResults")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.resultsUrl.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch results page")
		return nil, err
	}

	if isLoginPage(res.String()) {
		err = c.login(ctx, res)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sso login failed")
			return nil, err
		}
		res, err = c.http.R().
			SetContext(ctx).
			Get(c.resultsUrl.String())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch results page after login")
			return nil, err
		}
		c.saveCookies()
	}

	results, err := parseResults(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse results table")
		return nil, err
	}

	span.SetAttributes(attribute.Int("students", len(results)))
	return results, nil
}

// Fetch returns the snapshot of a single student from the results table.
func (c *Client) Fetch(ctx context.Context, studentID string) (snapshotstore.Snapshot, error) {
	results, err := c.FetchResults(ctx)
	if err != nil {
		return snapshotstore.Snapshot{}, err
	}
	snapshot, ok := results[studentID]
	if !ok {
		return snapshotstore.Snapshot{}, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	return snapshot, nil
}

func isLoginPage(body string) bool {
	return strings.Contains(body, "Single Sign-On") ||
		strings.Contains(body, "j_username") ||
		(strings.Contains(body, "<form") && strings.Contains(body, "SAML"))
}

// login drives the Shibboleth SSO form flow over plain HTTP: fill in the
// credential form the results page redirected to, then relay the SAML
// response back to the service provider.
func (c *Client) login(ctx context.Context, loginPage *resty.Response) error {
	ctx, span := tracer.Start(ctx, "login")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(loginPage.Body()))
	if err != nil {
		return err
	}

	pageUrl := loginPage.RawResponse.Request.URL

	form := doc.Find("input[name=j_username]").Closest("form")
	if form.Length() == 0 {
		// already past the credential step, e.g. an IdP session
		// survived while the SP session expired
		return c.relaySamlResponse(ctx, doc, pageUrl)
	}

	action, err := resolveFormAction(form, pageUrl)
	if err != nil {
		return err
	}

	values := url.Values{
		"j_username":        {c.username},
		"j_password":        {c.password},
		"_eventId_proceed":  {""},
		"shib_idp_ls_value": {""},
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(values.Encode()).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		Post(action)
	if err != nil {
		return err
	}

	resDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return err
	}
	if resDoc.Find("input[name=j_username]").Length() > 0 {
		span.SetStatus(codes.Error, InvalidCredentials.Error())
		return InvalidCredentials
	}

	return c.relaySamlResponse(ctx, resDoc, res.RawResponse.Request.URL)
}

// relaySamlResponse submits the auto-post form the IdP renders after a
// successful login. A missing form is fine, the redirect chain already
// landed back on the portal.
func (c *Client) relaySamlResponse(ctx context.Context, doc *goquery.Document, pageUrl *url.URL) error {
	samlInput := doc.Find("input[name=SAMLResponse]")
	if samlInput.Length() == 0 {
		return nil
	}

	form := samlInput.Closest("form")
	action, err := resolveFormAction(form, pageUrl)
	if err != nil {
		return err
	}

	values := url.Values{
		"SAMLResponse": {samlInput.AttrOr("value", "")},
	}
	relayState := doc.Find("input[name=RelayState]").AttrOr("value", "")
	if relayState != "" {
		values.Set("RelayState", relayState)
	}

	_, err = c.http.R().
		SetContext(ctx).
		SetBody(values.Encode()).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		Post(action)
	return err
}

func resolveFormAction(form *goquery.Selection, pageUrl *url.URL) (string, error) {
	action := form.AttrOr("action", "")
	if action == "" {
		return "", fmt.Errorf("sso form has no action attribute")
	}
	actionUrl, err := url.Parse(action)
	if err != nil {
		return "", err
	}
	if pageUrl != nil {
		actionUrl = pageUrl.ResolveReference(actionUrl)
	}
	return actionUrl.String(), nil
}

package stag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/stag")

const DefaultBaseUrl = "https://stag-ws.zcu.cz/ws/services/rest2"

// UnknownLogin is the placeholder used when the lookup fails; lookups are
// best effort and never fatal to a notification.
const UnknownLogin = "NEZNÁMÉ"

// Client resolves university student numbers against the STAG web
// services REST API.
type Client struct {
	http *resty.Client
}

func NewClient(baseUrl string) Client {
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetTimeout(time.Second * 5)
	return Client{http: client}
}

// GetOrionLogin looks up the Orion account name for a student number.
func (c Client) GetOrionLogin(ctx context.Context, studentNumber string) (string, error) {
	ctx, span := tracer.Start(ctx, "GetOrionLogin")
	defer span.End()

	span.SetAttributes(attribute.String("student_number", studentNumber))

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("osCislo", studentNumber).
		Get("/orion/getOrionLoginByOsobniCislo")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stag request failed")
		return "", err
	}
	if res.StatusCode() != 200 {
		err := fmt.Errorf("stag returned status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	login := strings.TrimSpace(res.String())
	if login == "" {
		return UnknownLogin, nil
	}
	return login, nil
}

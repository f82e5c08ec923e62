package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gradewatch/lib/scrapers/courseware"
	"gradewatch/lib/scrapers/stag"
	"gradewatch/lib/timezone"
	"gradewatch/services/watchdog"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("watchdog/notify")

const embedColorOrange = 16744448

// descriptions longer than this get cut off, Discord rejects embeds past
// a certain size
const maxDescriptionLength = 950

type DiscordOptions struct {
	WebhookUrl string
	// Orion resolves student numbers to account names, may be nil.
	Orion OrionResolver
	// Detail quotes the assessment text in the embed, may be nil.
	Detail DetailFetcher
	// Cooldown is slept after each successful delivery to stay under
	// the webhook rate limit.
	Cooldown time.Duration
}

// Discord posts change events to a Discord webhook as embeds.
type Discord struct {
	opts DiscordOptions
	http *resty.Client
}

func NewDiscord(opts DiscordOptions) *Discord {
	client := resty.New()
	client.SetTimeout(time.Second * 15)
	return &Discord{
		opts: opts,
		http: client,
	}
}

type webhookPayload struct {
	Content  string         `json:"content,omitempty"`
	Username string         `json:"username"`
	Embeds   []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Author      webhookAuthor  `json:"author"`
	Title       string         `json:"title"`
	Url         string         `json:"url,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []webhookField `json:"fields"`
	Footer      webhookFooter  `json:"footer"`
}

type webhookAuthor struct {
	Name string `json:"name"`
}

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookFooter struct {
	Text string `json:"text"`
}

func (d *Discord) Notify(ctx context.Context, event watchdog.ChangeEvent, target watchdog.WatchTarget) error {
	ctx, span := tracer.Start(ctx, "Notify")
	defer span.End()
	span.SetAttributes(
		attribute.String("student", event.StudentID),
		attribute.String("field", event.Field),
	)

	payload := d.buildPayload(ctx, event, target)

	res, err := d.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(payload).
		Post(d.opts.WebhookUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook request failed")
		return err
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		err := fmt.Errorf("webhook returned status %d: %s", res.StatusCode(), res.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook rejected payload")
		return err
	}

	if d.opts.Cooldown > 0 {
		time.Sleep(d.opts.Cooldown)
	}
	return nil
}

func (d *Discord) buildPayload(ctx context.Context, event watchdog.ChangeEvent, target watchdog.WatchTarget) webhookPayload {
	orion := stag.UnknownLogin
	if d.opts.Orion != nil {
		resolved, err := d.opts.Orion.GetOrionLogin(ctx, event.StudentID)
		if err != nil {
			slog.WarnContext(ctx, "orion lookup failed", "student", event.StudentID, "err", err)
		} else {
			orion = resolved
		}
	}

	var detail courseware.AssessmentDetail
	if d.opts.Detail != nil {
		fetched, err := d.opts.Detail.FetchAssessmentDetail(ctx, event.StudentID)
		if err != nil {
			slog.WarnContext(ctx, "assessment detail fetch failed", "student", event.StudentID, "err", err)
		} else {
			detail = fetched
		}
	}

	previous := event.Previous
	if !event.HasPrevious {
		previous = "první záznam"
	}

	description := ""
	if detail.Text != "" {
		text := detail.Text
		if len(text) > maxDescriptionLength {
			text = text[:maxDescriptionLength] + "... (zkráceno)"
		}
		description = fmt.Sprintf("```\n%s\n```", text)
	}

	fields := []webhookField{
		{Name: "O. ČÍSLO", Value: event.StudentID, Inline: true},
		{Name: "ORION", Value: orion, Inline: true},
		{Name: "POLE", Value: event.Field, Inline: true},
		{Name: "PŮVODNÍ HODNOTA", Value: previous, Inline: true},
		{Name: "NOVÁ HODNOTA", Value: event.New, Inline: true},
	}
	if detail.SubmittedAt != "" {
		fields = append(fields, webhookField{
			Name: "ČAS ODEVZDÁNÍ SP", Value: detail.SubmittedAt,
		})
	}
	if detail.PdfUrl != "" || detail.DetailUrl != "" {
		links := ""
		if detail.PdfUrl != "" {
			links += fmt.Sprintf("[ODKAZ NA DOKUMENTACI](%s)\n", detail.PdfUrl)
		}
		if detail.DetailUrl != "" {
			links += fmt.Sprintf("[ODKAZ NA DETAIL OHODNOCENÍ](%s)", detail.DetailUrl)
		}
		fields = append(fields, webhookField{Name: "ODKAZY", Value: links})
	}

	content := ""
	if target.DiscordUserID != "" {
		content = fmt.Sprintf("<@%s>", target.DiscordUserID)
	}

	return webhookPayload{
		Content:  content,
		Username: "KIV-PC Bot",
		Embeds: []webhookEmbed{{
			Author:      webhookAuthor{Name: "KIV/PC: VÝSLEDKY"},
			Title:       "ZMĚNA HODNOCENÍ",
			Url:         detail.DetailUrl,
			Description: description,
			Color:       embedColorOrange,
			Fields:      fields,
			Footer: webhookFooter{
				Text: fmt.Sprintf("Čas kontroly: %s", timezone.Now().Format("02.01.2006 15:04:05")),
			},
		}},
	}
}

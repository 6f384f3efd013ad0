package workflow

import (
	"encoding/json"
	"fmt"
	"net/url"
	"unicode/utf8"
)

// Action is one prepared downstream action: a tool slug and its
// parameter mapping, ready for the dispatcher.
type Action struct {
	Name   string         `json:"action"`
	Params map[string]any `json:"params"`
}

// slack message blocks cap out near 3000 characters; stay under it.
const maxSlackBlockChars = 2900

func (c *Coordinator) prepareGmailAction(subject, researchText string) *Action {
	if c.cfg.GmailAccountID == "" || len(c.cfg.GmailRecipients) == 0 {
		c.log.Info().Msg("skipping gmail automation; account or recipients missing")
		return nil
	}

	slug := c.catalog.FindTool("gmail", "send_email")
	if slug == "" {
		slug = c.catalog.FindTool("gmail", "create_email_draft")
	}
	if slug == "" {
		c.log.Info().Msg("no gmail send/draft tool available; skipping email automation")
		return nil
	}

	body := fmt.Sprintf("Subject: %s\n\nSummary:\n\n%s", subject, researchText)
	if c.cfg.SheetShareURL != "" {
		body += "\n\nGoogle Sheet: " + c.cfg.SheetShareURL
	}

	params := map[string]any{
		"connected_account_id": c.cfg.GmailAccountID,
		"recipient_email":      c.cfg.GmailRecipients[0],
		"subject":              fmt.Sprintf("%s research update", subject),
		"body":                 body,
		"is_html":              false,
	}
	if extra := c.cfg.GmailRecipients[1:]; len(extra) > 0 {
		params["extra_recipients"] = extra
	}
	if csvURL := c.csvDownloadURL(); csvURL != "" {
		params["attachments"] = []map[string]any{{
			"url":       csvURL,
			"mime_type": "text/csv",
			"title":     subject + "_analysis.csv",
		}}
	}
	return &Action{Name: slug, Params: params}
}

func (c *Coordinator) prepareSlackAction(subject, researchText string) *Action {
	if c.cfg.SlackAccountID == "" || c.cfg.SlackChannel == "" {
		c.log.Info().Msg("skipping slack automation; account or channel missing")
		return nil
	}
	if !c.riskDetected(researchText) {
		c.log.Info().Msg("no risk terms detected in research; slack alert suppressed")
		return nil
	}

	slug := c.catalog.FindTool("slack", "post_message")
	if slug == "" {
		slug = c.catalog.FindTool("slack", "send_message")
	}
	if slug == "" {
		c.log.Info().Msg("no slack message action available; skipping alert")
		return nil
	}

	baseText := "Attention required for " + subject
	alertText := "*" + baseText + "*"
	if researchText != "" {
		alertText += "\n" + researchText
	}
	if len(alertText) > maxSlackBlockChars {
		cut := maxSlackBlockChars - 3
		// Back up to a rune boundary so truncation never emits a torn
		// multi-byte sequence.
		for cut > 0 && !utf8.RuneStart(alertText[cut]) {
			cut--
		}
		alertText = alertText[:cut] + "..."
	}

	blocks := []map[string]any{{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": alertText},
	}}
	if c.cfg.SheetShareURL != "" {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("<%s|View Google Sheet>", c.cfg.SheetShareURL),
			},
		})
	}
	blocksJSON, err := json.Marshal(blocks)
	if err != nil {
		c.log.Debug().Err(err).Msg("failed to encode slack blocks")
		return nil
	}

	return &Action{
		Name: slug,
		Params: map[string]any{
			"connected_account_id": c.cfg.SlackAccountID,
			"channel":              c.cfg.SlackChannel,
			"text":                 baseText,
			"blocks":               string(blocksJSON),
		},
	}
}

func (c *Coordinator) prepareSheetsAction(subject, researchText string) *Action {
	if c.cfg.SpreadsheetID == "" {
		c.log.Info().Msg("skipping sheets automation; spreadsheet missing")
		return nil
	}

	slug := c.catalog.FindTool("googlesheets", "values_append")
	if slug == "" {
		slug = c.catalog.FindTool("googlesheets", "append")
	}
	if slug == "" {
		c.log.Info().Msg("no sheets append tool available; skipping row append")
		return nil
	}

	params := map[string]any{
		"spreadsheet_id": c.cfg.SpreadsheetID,
		"sheet_name":     c.cfg.SheetName,
		"values":         [][]string{{subject, researchText}},
	}
	if c.cfg.GmailAccountID != "" {
		params["connected_account_id"] = c.cfg.GmailAccountID
	}
	return &Action{Name: slug, Params: params}
}

// csvDownloadURL builds the spreadsheet CSV export link embedded in the
// email, empty when no spreadsheet is configured.
func (c *Coordinator) csvDownloadURL() string {
	if c.cfg.SpreadsheetID == "" {
		return ""
	}
	return fmt.Sprintf(
		"https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		c.cfg.SpreadsheetID, url.QueryEscape(c.cfg.SheetName),
	)
}

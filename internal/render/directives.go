package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"
)

// videoIDPattern accepts YouTube video identifiers.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var videoTemplate = template.Must(template.New("video").Parse(
	`<div class="directive directive--video"><iframe src="https://www.youtube-nocookie.com/embed/{{.ID}}{{if .Start}}?start={{.Start}}{{end}}" title="{{.Title}}" loading="lazy" allow="accelerometer; encrypted-media; picture-in-picture" allowfullscreen></iframe></div>`,
))

// renderVideo renders <Video videoID="..." /> as an embedded player.
// Optional parameters: title, start (seconds).
func renderVideo(params map[string]string) (template.HTML, error) {
	id := strings.TrimSpace(params["videoID"])
	if id == "" {
		return "", fmt.Errorf("parameter %q is required", "videoID")
	}
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("videoID %q is not a valid video identifier", id)
	}

	start := 0
	if s := strings.TrimSpace(params["start"]); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return "", fmt.Errorf("start %q must be a non-negative number of seconds", s)
		}
		start = n
	}

	title := strings.TrimSpace(params["title"])
	if title == "" {
		title = "YouTube video"
	}

	var buf bytes.Buffer
	err := videoTemplate.Execute(&buf, struct {
		ID    string
		Start int
		Title string
	}{ID: id, Start: start, Title: title})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

package player

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/discohub/disco-monitor/internal/types"
	"github.com/discohub/disco-monitor/internal/util"
)

// statusTimeout bounds a single request to the player interface.
const statusTimeout = 3 * time.Second

// Client talks to VLC's HTTP interface on loopback. VLC uses basic
// auth with an empty username.
type Client struct {
	baseURL  string
	password string
	http     *http.Client
}

// NewClient returns a control client for the player's HTTP port.
func NewClient(port int, password string) *Client {
	return &Client{
		baseURL:  fmt.Sprintf("http://127.0.0.1:%d", port),
		password: password,
		http:     &http.Client{Timeout: statusTimeout},
	}
}

// vlcStatus mirrors the parts of status.xml the monitor cares about.
type vlcStatus struct {
	State       string `xml:"state"`
	Time        int    `xml:"time"`
	Length      int    `xml:"length"`
	Volume      int    `xml:"volume"`
	Information struct {
		Categories []struct {
			Name string `xml:"name,attr"`
			Info []struct {
				Name  string `xml:"name,attr"`
				Value string `xml:",chardata"`
			} `xml:"info"`
		} `xml:"category"`
	} `xml:"information"`
}

// Status returns the current track and playback state.
func (c *Client) Status(ctx context.Context) (types.TrackInfo, error) {
	body, err := c.request(ctx, nil)
	if err != nil {
		return types.TrackInfo{}, err
	}

	var status vlcStatus
	if err := xml.Unmarshal(body, &status); err != nil {
		return types.TrackInfo{}, util.WrapError("parse player status", err)
	}

	info := types.TrackInfo{
		State:    status.State,
		Position: status.Time,
		Length:   status.Length,
		Volume:   status.Volume,
	}
	for _, category := range status.Information.Categories {
		if category.Name != "meta" {
			continue
		}
		for _, field := range category.Info {
			switch field.Name {
			case "title":
				info.Title = field.Value
			case "filename":
				info.Filename = field.Value
			}
		}
	}
	if info.Title == "" && info.Filename != "" {
		base := filepath.Base(info.Filename)
		info.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return info, nil
}

// Next skips to the next playlist entry.
func (c *Client) Next(ctx context.Context) error { return c.command(ctx, "pl_next", nil) }

// Previous goes back to the previous playlist entry.
func (c *Client) Previous(ctx context.Context) error { return c.command(ctx, "pl_previous", nil) }

// PlayPause toggles playback.
func (c *Client) PlayPause(ctx context.Context) error { return c.command(ctx, "pl_pause", nil) }

// Play resumes playback.
func (c *Client) Play(ctx context.Context) error { return c.command(ctx, "pl_play", nil) }

// StopPlayback stops playback without touching the process.
func (c *Client) StopPlayback(ctx context.Context) error { return c.command(ctx, "pl_stop", nil) }

// SetVolume sets the player volume. 256 is 100% in VLC units.
func (c *Client) SetVolume(ctx context.Context, volume int) error {
	return c.command(ctx, "volume", url.Values{"val": {strconv.Itoa(volume)}})
}

// command issues one control command against status.xml.
func (c *Client) command(ctx context.Context, name string, extra url.Values) error {
	params := url.Values{"command": {name}}
	for key, vals := range extra {
		params[key] = vals
	}
	_, err := c.request(ctx, params)
	return err
}

// request performs an authenticated GET against the status endpoint.
func (c *Client) request(ctx context.Context, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + "/requests/status.xml"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, util.WrapError("build player request", err)
	}
	req.SetBasicAuth("", c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, util.WrapError("reach player interface", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only operation, close error not critical

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player interface returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, util.WrapError("read player response", err)
	}
	return body, nil
}

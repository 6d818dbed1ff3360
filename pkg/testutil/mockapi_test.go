package testutil

import (
	"io"
	"net/http"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockAPIPagination(t *testing.T) {
	api := NewMockAPI(t, Characters(1, 2), Characters(3, 1))

	resp, err := http.Get(api.URL() + "character")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var page struct {
		Info struct {
			Next *string `json:"next"`
		} `json:"info"`
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, gojson.Unmarshal(body, &page))
	require.NotNil(t, page.Info.Next)
	assert.Equal(t, api.Server.URL+"/api/character?page=2", *page.Info.Next)
	assert.Len(t, page.Results, 2)

	resp2, err := http.Get(*page.Info.Next)
	require.NoError(t, err)
	resp2.Body.Close()

	assert.Equal(t, []string{"<none>", "2"}, api.PageParams())
}

func TestMockAPIForcedStatus(t *testing.T) {
	api := NewMockAPI(t, Characters(1, 1))
	api.SetRootStatus(http.StatusMovedPermanently)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(api.URL())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, 1, api.Requests())
}

func TestMockAPIDefaultPages(t *testing.T) {
	api := NewMockAPI(t)

	var total int
	next := api.URL() + "character?page=1"
	for next != "" {
		resp, err := http.Get(next)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page struct {
			Info struct {
				Next *string `json:"next"`
			} `json:"info"`
			Results []map[string]interface{} `json:"results"`
		}
		require.NoError(t, gojson.NewDecoder(resp.Body).Decode(&page))
		resp.Body.Close()

		total += len(page.Results)
		next = ""
		if page.Info.Next != nil {
			next = *page.Info.Next
		}
	}

	assert.Equal(t, 25, total)
	assert.Equal(t, []string{"1", "2"}, api.PageParams())
}

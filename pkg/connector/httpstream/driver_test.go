package httpstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/clients"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }

func characters() Stream {
	return HTTPStream{StreamName: "characters", StreamPath: "character", Key: "id"}
}

func newTestDriver(t *testing.T, baseURL, startPage string) *Driver {
	t.Helper()
	client := clients.NewHTTPClient(nil, testutil.TestLogger(t))
	t.Cleanup(func() { _ = client.Close() })
	return NewDriver(client, config.HTTPSourceConfig{BaseURL: baseURL, StartPage: startPage},
		WithLogger(testutil.TestLogger(t)), WithSourceName("test"))
}

func collect(t *testing.T, ctx context.Context, d *Driver) ([]Record, error) {
	t.Helper()
	var out []Record
	for rec, err := range d.Records(ctx, characters()) {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func TestDriverReadsAllPages(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 20), testutil.Characters(21, 5))
	d := newTestDriver(t, api.URL(), "1")

	records, err := collect(t, context.Background(), d)
	require.NoError(t, err)
	require.Len(t, records, 25)
	assert.Equal(t, "Character 1", records[0]["name"])
	assert.Equal(t, "Character 25", records[24]["name"])

	// second page has next=null so no third request is made
	assert.Equal(t, 2, api.Requests())
	assert.Equal(t, []string{"1", "2"}, api.PageParams())
}

func TestDriverStartPage(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 2), testutil.Characters(3, 2), testutil.Characters(5, 2))
	d := newTestDriver(t, api.URL(), "2")

	records, err := collect(t, context.Background(), d)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Character 3", records[0]["name"])
	assert.Equal(t, []string{"2", "3"}, api.PageParams())
}

func TestDriverEmptyStartPageSendsNoParam(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 3), testutil.Characters(4, 1))
	d := newTestDriver(t, api.URL(), "")

	records, err := collect(t, context.Background(), d)
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, []string{"<none>", "2"}, api.PageParams())
}

func TestDriverMidStreamFailure(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 2), testutil.Characters(3, 2), testutil.Characters(5, 2))
	api.SetPageStatus("2", http.StatusInternalServerError)
	d := newTestDriver(t, api.URL(), "1")

	records, err := collect(t, context.Background(), d)
	require.Error(t, err)
	assert.Len(t, records, 2, "records of earlier pages are still delivered")
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
	assert.Equal(t, http.StatusInternalServerError, errors.StatusCode(err))
	assert.Equal(t, 2, api.Requests(), "failed requests are not retried")
}

func TestDriverNotFound(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 2))
	d := newTestDriver(t, api.URL(), "9")

	records, err := collect(t, context.Background(), d)
	require.Error(t, err)
	assert.Empty(t, records)
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
}

func TestDriverInvalidBody(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 2))
	api.SetPageBody("1", "not json at all")
	d := newTestDriver(t, api.URL(), "1")

	records, err := collect(t, context.Background(), d)
	require.Error(t, err)
	assert.Empty(t, records)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestDriverMissingFields(t *testing.T) {
	t.Run("missing info ends pagination", func(t *testing.T) {
		api := testutil.NewMockAPI(t, testutil.Characters(1, 2))
		api.SetPageBody("1", `{"results":[{"id":1},{"id":2},{"id":3}]}`)
		d := newTestDriver(t, api.URL(), "1")

		records, err := collect(t, context.Background(), d)
		require.NoError(t, err)
		assert.Len(t, records, 3)
		assert.Equal(t, 1, api.Requests())
	})

	t.Run("missing results yields nothing", func(t *testing.T) {
		api := testutil.NewMockAPI(t, testutil.Characters(1, 2))
		api.SetPageBody("1", `{"info":{"count":0,"pages":0,"next":null,"prev":null}}`)
		d := newTestDriver(t, api.URL(), "1")

		records, err := collect(t, context.Background(), d)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.Equal(t, 1, api.Requests())
	})
}

func TestDriverEarlyStop(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 5), testutil.Characters(6, 5))
	d := newTestDriver(t, api.URL(), "1")

	n := 0
	for _, err := range d.Records(context.Background(), characters()) {
		require.NoError(t, err)
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, api.Requests())
}

func TestDriverCancelledContext(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 5))
	d := newTestDriver(t, api.URL(), "1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := collect(t, ctx, d)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, records)
	assert.Zero(t, api.Requests())
}

func TestDriverConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL + "/api/"
	srv.Close()

	d := newTestDriver(t, baseURL, "1")
	records, err := collect(t, context.Background(), d)
	require.Error(t, err)
	assert.Empty(t, records)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
	assert.Zero(t, errors.StatusCode(err))
}

func TestDriverIdempotent(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 4), testutil.Characters(5, 4))
	d := newTestDriver(t, api.URL(), "1")

	first, err := collect(t, context.Background(), d)
	require.NoError(t, err)
	second, err := collect(t, context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"1", "2", "1", "2"}, api.PageParams())
}

func TestDriverBearerToken(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 1))
	cfg := clients.DefaultHTTPConfig()
	cfg.BearerToken = "s3cret"
	client := clients.NewHTTPClient(cfg, testutil.TestLogger(t))
	d := NewDriver(client, config.HTTPSourceConfig{BaseURL: api.URL(), StartPage: "1"})

	_, err := collect(t, context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", api.LastHeader("Authorization"))
}

func TestDriverRunStopsOnEmitError(t *testing.T) {
	api := testutil.NewMockAPI(t, testutil.Characters(1, 3), testutil.Characters(4, 3))
	d := newTestDriver(t, api.URL(), "1")

	n := 0
	err := d.Run(context.Background(), characters(), func(rec Record) error {
		n++
		if n == 2 {
			return fmt.Errorf("sink full")
		}
		return nil
	})
	require.EqualError(t, err, "sink full")
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, api.Requests())
}

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T) *testClient {
	return newTestClientWithCap(t, defaultMaxUpload)
}

func newTestClientWithCap(t *testing.T, maxUpload int64) *testClient {
	t.Helper()
	sessions := NewSessionStore(time.Minute)
	srv := httptest.NewServer(newMux(sessions, maxUpload))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, srv: srv, client: &http.Client{Jar: jar}}
}

type upFile struct {
	name string
	ct   string
	data []byte
}

// upload posts files in order and returns the decoded list response.
func (c *testClient) upload(files ...upFile) (*http.Response, listResponse) {
	c.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.ct)
		part, err := w.CreatePart(h)
		require.NoError(c.t, err)
		_, err = part.Write(f.data)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, w.Close())

	resp, err := c.client.Post(c.srv.URL+"/upload", w.FormDataContentType(), &buf)
	require.NoError(c.t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(c.t, err)
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var list listResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(c.t, json.Unmarshal(body, &list))
	}
	return resp, list
}

func (c *testClient) postJSON(path string, body any) *http.Response {
	c.t.Helper()
	b, err := json.Marshal(body)
	require.NoError(c.t, err)
	resp, err := c.client.Post(c.srv.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(c.t, err)
	return resp
}

func decodeErr(t *testing.T, resp *http.Response) (msg, file string) {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Error string `json:"error"`
		File  string `json:"file"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error, body.File
}

func TestUploadAndIndexListsFilesInOrder(t *testing.T) {
	c := newTestClient(t)
	resp, list := c.upload(
		upFile{"a.pdf", "application/pdf", pdfFixture(t, "alpha", 1)},
		upFile{"photo.png", "image/png", pngFixture(t, 8, 8)},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Files, 2)
	assert.Equal(t, "a.pdf", list.Files[0].Name)
	assert.Equal(t, "photo.png", list.Files[1].Name)

	idx, err := c.client.Get(c.srv.URL + "/")
	require.NoError(t, err)
	defer idx.Body.Close()

	doc, err := goquery.NewDocumentFromReader(idx.Body)
	require.NoError(t, err)

	rows := doc.Find(".fileRow")
	require.Equal(t, 2, rows.Length())
	var names []string
	rows.Each(func(_ int, s *goquery.Selection) {
		names = append(names, strings.TrimSpace(s.Find(".name").Text()))
	})
	assert.Equal(t, []string{"a.pdf", "photo.png"}, names)
}

func TestUpload_UnsupportedType(t *testing.T) {
	c := newTestClient(t)
	resp, _ := c.upload(upFile{"notes.txt", "text/plain", []byte("hello")})
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	_, file := decodeErr(t, resp)
	assert.Equal(t, "notes.txt", file)
}

func TestReorderThenMergeFollowsNewOrder(t *testing.T) {
	c := newTestClient(t)
	_, list := c.upload(
		upFile{"a.pdf", "application/pdf", pdfFixture(t, "alpha", 1)},
		upFile{"b.pdf", "application/pdf", pdfFixture(t, "beta", 1)},
	)
	require.Len(t, list.Files, 2)

	resp := c.postJSON("/reorder", reorderRequest{Order: []string{list.Files[1].ID, list.Files[0].ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = c.postJSON("/merge", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var merged struct {
		Download string `json:"download"`
		Name     string `json:"name"`
		Pages    int    `json:"pages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&merged))
	resp.Body.Close()
	assert.Equal(t, 2, merged.Pages)
	assert.True(t, strings.HasPrefix(merged.Name, downloadPrefix+"_"))

	dl, err := c.client.Get(c.srv.URL + merged.Download)
	require.NoError(t, err)
	defer dl.Body.Close()
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "application/pdf", dl.Header.Get("Content-Type"))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), downloadPrefix)

	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Less(t, bytes.Index(data, []byte("beta page 1")), bytes.Index(data, []byte("alpha page 1")),
		"reordered list reverses the page sequence")
}

func TestUpload_OverCapRejected(t *testing.T) {
	c := newTestClientWithCap(t, 1024)
	resp, _ := c.upload(upFile{"big.pdf", "application/pdf", bytes.Repeat([]byte{0x42}, 8192)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	msg, _ := decodeErr(t, resp)
	assert.Contains(t, msg, "bad upload")
}

func TestMoveEndpointShiftsOneFile(t *testing.T) {
	c := newTestClient(t)
	_, list := c.upload(
		upFile{"a.pdf", "application/pdf", pdfFixture(t, "alpha", 1)},
		upFile{"b.pdf", "application/pdf", pdfFixture(t, "beta", 1)},
		upFile{"c.pdf", "application/pdf", pdfFixture(t, "gamma", 1)},
	)
	require.Len(t, list.Files, 3)

	resp := c.postJSON("/move", moveRequest{ID: list.Files[2].ID, To: 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after listResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&after))
	resp.Body.Close()
	require.Len(t, after.Files, 3)
	var names []string
	for _, f := range after.Files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"c.pdf", "a.pdf", "b.pdf"}, names)

	resp = c.postJSON("/move", moveRequest{ID: "nope", To: 1})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReorder_RejectsPartialOrder(t *testing.T) {
	c := newTestClient(t)
	_, list := c.upload(
		upFile{"a.pdf", "application/pdf", pdfFixture(t, "alpha", 1)},
		upFile{"b.pdf", "application/pdf", pdfFixture(t, "beta", 1)},
	)
	resp := c.postJSON("/reorder", reorderRequest{Order: []string{list.Files[0].ID}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMerge_EmptyListRejected(t *testing.T) {
	c := newTestClient(t)
	resp := c.postJSON("/merge", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	msg, _ := decodeErr(t, resp)
	assert.Contains(t, msg, "no files")
}

func TestMerge_CorruptFileReportsName(t *testing.T) {
	c := newTestClient(t)
	// declared as pdf, so intake accepts it; the merge engine must fail it
	resp, _ := c.upload(
		upFile{"a.pdf", "application/pdf", pdfFixture(t, "alpha", 1)},
		upFile{"broken.pdf", "application/pdf", []byte("garbage bytes")},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.postJSON("/merge", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	_, file := decodeErr(t, resp)
	assert.Equal(t, "broken.pdf", file)
}

func TestRemoveShrinksList(t *testing.T) {
	c := newTestClient(t)
	_, list := c.upload(
		upFile{"a.pdf", "application/pdf", pdfFixture(t, "alpha", 1)},
		upFile{"b.pdf", "application/pdf", pdfFixture(t, "beta", 1)},
	)
	resp := c.postJSON("/remove", removeRequest{ID: list.Files[0].ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after listResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&after))
	resp.Body.Close()
	require.Len(t, after.Files, 1)
	assert.Equal(t, "b.pdf", after.Files[0].Name)

	resp = c.postJSON("/remove", removeRequest{ID: "nope"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFilePreviewServesStoredBytes(t *testing.T) {
	c := newTestClient(t)
	png := pngFixture(t, 8, 8)
	_, list := c.upload(upFile{"photo.png", "image/png", png})
	require.Len(t, list.Files, 1)

	resp, err := c.client.Get(c.srv.URL + "/file?id=" + list.Files[0].ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, png, data)
}

func TestSessionsAreIsolated(t *testing.T) {
	c1 := newTestClient(t)
	c2 := &testClient{t: t, srv: c1.srv, client: func() *http.Client {
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		return &http.Client{Jar: jar}
	}()}

	_, list := c1.upload(upFile{"a.pdf", "application/pdf", pdfFixture(t, "alpha", 1)})
	require.Len(t, list.Files, 1)

	idx, err := c2.client.Get(c2.srv.URL + "/")
	require.NoError(t, err)
	defer idx.Body.Close()
	doc, err := goquery.NewDocumentFromReader(idx.Body)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find(".fileRow").Length(), "other session sees an empty list")
}

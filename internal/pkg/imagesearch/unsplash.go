package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/slidesmith/backend/config"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	// ErrNotConfigured 未配置 access key
	ErrNotConfigured = errors.New("image search is not configured")
	// ErrNoResults 搜索没有结果
	ErrNoResults = errors.New("no image found")
)

const (
	defaultBaseURL   = "https://api.unsplash.com"
	searchConcurrent = 4
)

// Photo 搜索到的图片
type Photo struct {
	URL              string `json:"url"`
	SmallURL         string `json:"url_small"`
	ThumbURL         string `json:"url_thumb"`
	Alt              string `json:"alt_description"`
	Author           string `json:"author"`
	AuthorURL        string `json:"author_url"`
	DownloadLocation string `json:"download_location"`
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
			Thumb   string `json:"thumb"`
		} `json:"urls"`
		AltDescription string `json:"alt_description"`
		User           struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
		Links struct {
			DownloadLocation string `json:"download_location"`
		} `json:"links"`
	} `json:"results"`
}

// Client Unsplash 兼容的图片搜索客户端
type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

// NewClient 创建图片搜索客户端
func NewClient(cfg config.ImageSearchConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		accessKey:  cfg.AccessKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled 是否配置了 access key
func (c *Client) Enabled() bool {
	return c.accessKey != ""
}

// Search 搜索一张横向图片
func (c *Client) Search(ctx context.Context, query string) (*Photo, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoResults
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")
	params.Set("content_filter", "high")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(data.Results) == 0 || data.Results[0].URLs.Regular == "" {
		return nil, ErrNoResults
	}

	r := data.Results[0]
	photo := &Photo{
		URL:              r.URLs.Regular,
		SmallURL:         r.URLs.Small,
		ThumbURL:         r.URLs.Thumb,
		Alt:              r.AltDescription,
		Author:           r.User.Name,
		AuthorURL:        r.User.Links.HTML,
		DownloadLocation: r.Links.DownloadLocation,
	}
	if photo.Alt == "" {
		photo.Alt = query
	}
	klog.V(6).Infof("[ImageSearch] 搜索成功: query=%s, author=%s", query, photo.Author)
	return photo, nil
}

// SearchURL 只返回图片地址，供资源解析器按查询词解析图片
func (c *Client) SearchURL(ctx context.Context, query string) (string, error) {
	photo, err := c.Search(ctx, query)
	if err != nil {
		return "", err
	}
	c.TrackDownload(ctx, photo.DownloadLocation)
	return photo.URL, nil
}

// TrackDownload 通知图片提供方发生了一次下载，失败只记录日志
func (c *Client) TrackDownload(ctx context.Context, location string) {
	if location == "" || !c.Enabled() {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		klog.Warningf("[ImageSearch] 下载统计请求构造失败: %v", err)
		return
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		klog.Warningf("[ImageSearch] 下载统计失败: %v", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// SearchAll 并发搜索多组查询词，key 通常为幻灯片序号；未找到的 key 不出现在结果中
func (c *Client) SearchAll(ctx context.Context, queries map[int]string) map[int]*Photo {
	out := make(map[int]*Photo, len(queries))
	if !c.Enabled() || len(queries) == 0 {
		return out
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrent)
	for key, query := range queries {
		g.Go(func() error {
			photo, err := c.Search(gctx, query)
			if err != nil {
				klog.Warningf("[ImageSearch] 搜索失败: key=%d, query=%s, error=%v", key, query, err)
				return nil
			}
			c.TrackDownload(gctx, photo.DownloadLocation)
			mu.Lock()
			out[key] = photo
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return out
}

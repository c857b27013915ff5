package asset

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/slidesmith/backend/internal/deck/content"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxBytes    = 10 << 20
	defaultConcurrency = 4
)

// Searcher 将搜索词解析为图片 URL
type Searcher interface {
	SearchURL(ctx context.Context, query string) (string, error)
}

// Options 解析器配置
type Options struct {
	Timeout     time.Duration
	MaxBytes    int64
	Concurrency int
}

// ResolvedAsset 已落盘的图片
type ResolvedAsset struct {
	Path   string
	Source string
}

// Resolver 远程图片解析器，任何失败都只返回 nil 并记录告警
type Resolver struct {
	httpClient *http.Client
	searcher   Searcher
	opts       Options
}

// NewResolver 创建解析器，searcher 可为 nil
func NewResolver(opts Options, searcher Searcher) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Resolver{
		httpClient: &http.Client{Timeout: opts.Timeout},
		searcher:   searcher,
		opts:       opts,
	}
}

// Resolve 获取一张图片并写入 dir，失败返回 nil
func (r *Resolver) Resolve(ctx context.Context, ref content.ImageRef, dir string) *ResolvedAsset {
	source := strings.TrimSpace(ref.URL)
	if source == "" && ref.Query != "" {
		if r.searcher == nil {
			klog.V(6).Infof("[AssetResolver] 未配置图片搜索，跳过 query=%s", ref.Query)
			return nil
		}
		url, err := r.searcher.SearchURL(ctx, ref.Query)
		if err != nil || url == "" {
			klog.Warningf("[AssetResolver] 图片搜索失败: query=%s, err=%v", ref.Query, err)
			return nil
		}
		source = url
	}
	if source == "" {
		return nil
	}

	data, err := r.load(ctx, source)
	if err != nil {
		klog.Warningf("[AssetResolver] 获取图片失败: source=%s, err=%v", source, err)
		return nil
	}

	out, ext, err := normalize(data)
	if err != nil {
		klog.Warningf("[AssetResolver] 图片无法嵌入: source=%s, err=%v", source, err)
		return nil
	}

	path := filepath.Join(dir, uuid.NewString()+"."+ext)
	if err := os.WriteFile(path, out, 0644); err != nil {
		klog.Warningf("[AssetResolver] 写入图片失败: path=%s, err=%v", path, err)
		return nil
	}
	klog.V(6).Infof("[AssetResolver] 图片已就绪: source=%s, path=%s, size=%d", source, path, len(out))
	return &ResolvedAsset{Path: path, Source: source}
}

// ResolveAll 并发解析一组图片，全部完成后返回；key 为幻灯片序号
func (r *Resolver) ResolveAll(ctx context.Context, refs map[int]content.ImageRef, dir string) map[int]*ResolvedAsset {
	out := make(map[int]*ResolvedAsset, len(refs))
	if len(refs) == 0 {
		return out
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for idx, ref := range refs {
		g.Go(func() error {
			asset := r.Resolve(ctx, ref, dir)
			if asset == nil {
				return nil
			}
			mu.Lock()
			out[idx] = asset
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Resolver) load(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "data:") {
		return decodeDataURL(source)
	}
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return nil, fmt.Errorf("unsupported scheme")
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remote fetch error: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.opts.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.opts.MaxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", r.opts.MaxBytes)
	}
	return data, nil
}

func decodeDataURL(source string) ([]byte, error) {
	parts := strings.SplitN(source, ",", 2)
	if len(parts) != 2 || !strings.HasSuffix(parts[0], ";base64") {
		return nil, errors.New("invalid data url")
	}
	return base64.StdEncoding.DecodeString(parts[1])
}

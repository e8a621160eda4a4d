package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout    time.Duration
	MaxRetries int
}

// FTPFetcher downloads dataset files over FTP. Some national statistics
// mirrors still publish the pandemic CSVs over plain FTP, a few behind
// per-agency accounts, so credentials may ride in the locator's userinfo.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &FTPFetcher{opts: opts}
}

// ftpTarget is a resolved ftp:// locator.
type ftpTarget struct {
	host string // always host:port
	path string
	user string
	pass string
}

// splitFTPLocator resolves an ftp:// locator into a dialable target.
// Port defaults to 21 and credentials default to anonymous unless the
// locator carries userinfo.
func splitFTPLocator(locator string) (ftpTarget, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "parse ftp locator")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}
	if u.Path == "" {
		return ftpTarget{}, eris.New("ftp locator has no file path")
	}

	target := ftpTarget{
		host: u.Host,
		path: u.Path,
		user: "anonymous",
		pass: "anonymous@",
	}
	if _, _, splitErr := net.SplitHostPort(target.host); splitErr != nil {
		target.host = net.JoinHostPort(target.host, "21")
	}
	if u.User != nil {
		target.user = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			target.pass = pass
		}
	}
	return target, nil
}

// mirrorReader streams a retrieved file and releases the FTP session when
// closed. The data connection must be drained or closed before the control
// connection quits, so Close handles both in order.
type mirrorReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *mirrorReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *mirrorReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "close ftp transfer")
	}
	return eris.Wrap(quitErr, "quit ftp session")
}

// Download retrieves the locator's file from its FTP mirror. Dial failures
// are retried with backoff since mirrors drop connections under load; login
// and retrieval failures are permanent and fail immediately. The caller must
// close the returned ReadCloser to release the session.
func (f *FTPFetcher) Download(ctx context.Context, locator string) (io.ReadCloser, error) {
	target, err := splitFTPLocator(locator)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("host", target.host), zap.String("path", target.path))

	var lastErr error
	for attempt := range f.opts.MaxRetries {
		conn, err := ftp.Dial(target.host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
		if err != nil {
			lastErr = err
			log.Warn("ftp mirror unreachable, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
			backoffWait(ctx, attempt)
			continue
		}

		if err := conn.Login(target.user, target.pass); err != nil {
			_ = conn.Quit()
			return nil, eris.Wrapf(err, "ftp login as %s", target.user)
		}

		resp, err := conn.Retr(target.path)
		if err != nil {
			_ = conn.Quit()
			return nil, eris.Wrapf(err, "ftp retrieve %s", target.path)
		}

		log.Debug("ftp transfer started", zap.String("user", target.user))
		return &mirrorReader{resp: resp, conn: conn}, nil
	}

	return nil, eris.Wrap(lastErr, "ftp dial: all retries exhausted")
}

// DownloadToFile retrieves the locator's file to a local path and returns
// the bytes written.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, locator string, path string) (int64, error) {
	rc, err := f.Download(ctx, locator)
	if err != nil {
		return 0, err
	}
	defer rc.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, rc)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}

	zap.L().Debug("ftp download complete", zap.String("path", path), zap.Int64("bytes", n))
	return n, nil
}

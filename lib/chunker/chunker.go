package chunker

import (
	"context"
	"io"
	"os"

	logging "github.com/ipfs/go-log/v2"
	pool "github.com/libp2p/go-buffer-pool"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

var log = logging.Logger("chunker")

const DefaultChunkSize = 1024

// ChunkCount is ceil(length/chunkSize).
func ChunkCount(length int64, chunkSize int) int {
	if length <= 0 {
		return 0
	}
	return int((length + int64(chunkSize) - 1) / int64(chunkSize))
}

// Source reads fixed-size chunks from a file-like reader. The last chunk is
// zero-padded to the full chunk size.
type Source struct {
	r         io.ReaderAt
	size      int64
	chunkSize int

	closer io.Closer
}

func NewSource(r io.ReaderAt, size int64, chunkSize int) (*Source, error) {
	if chunkSize <= 0 {
		return nil, xerrors.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if size < 0 {
		return nil, xerrors.Errorf("negative source size %d", size)
	}
	return &Source{r: r, size: size, chunkSize: chunkSize}, nil
}

// OpenFile opens path as a chunk source. The caller must Close it.
func OpenFile(path string, chunkSize int) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("opening %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, xerrors.Errorf("stat %s: %w", path, err)
	}

	s, err := NewSource(f, st.Size(), chunkSize)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *Source) Size() int64 { return s.size }

func (s *Source) ChunkSize() int { return s.chunkSize }

func (s *Source) ChunkCount() int { return ChunkCount(s.size, s.chunkSize) }

// ReadChunk returns a freshly allocated copy of chunk i.
func (s *Source) ReadChunk(i int) ([]byte, error) {
	buf := make([]byte, s.chunkSize)
	if err := s.readInto(i, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *Source) readInto(i int, buf []byte) error {
	if i < 0 || i >= s.ChunkCount() {
		return xerrors.Errorf("chunk %d out of range [0, %d)", i, s.ChunkCount())
	}

	off := int64(i) * int64(s.chunkSize)
	want := s.chunkSize
	if rem := s.size - off; rem < int64(want) {
		want = int(rem)
	}

	n, err := s.r.ReadAt(buf[:want], off)
	if err != nil && err != io.EOF {
		return xerrors.Errorf("reading chunk %d at offset %d: %w", i, off, err)
	}
	if n < want {
		log.Debugw("short chunk read, zero padding", "chunk", i, "offset", off, "want", want, "got", n)
	}
	clear(buf[n:])
	return nil
}

// ForEach calls fn for every chunk with up to parallelism concurrent reads.
// The chunk buffer is only valid for the duration of the call.
func (s *Source) ForEach(ctx context.Context, parallelism int, fn func(i int, chunk []byte) error) error {
	if parallelism <= 0 {
		parallelism = 1
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)

	for i := 0; i < s.ChunkCount(); i++ {
		if egctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			buf := pool.Get(s.chunkSize)
			defer pool.Put(buf)

			if err := s.readInto(i, buf); err != nil {
				return err
			}
			return fn(i, buf)
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Splice inserts insert into chunk at pos, growing the result by len(insert).
// chunk is not modified.
func Splice(chunk []byte, pos int, insert []byte) ([]byte, error) {
	if pos < 0 || pos > len(chunk) {
		return nil, xerrors.Errorf("splice position %d outside chunk of %d bytes", pos, len(chunk))
	}
	out := make([]byte, 0, len(chunk)+len(insert))
	out = append(out, chunk[:pos]...)
	out = append(out, insert...)
	out = append(out, chunk[pos:]...)
	return out, nil
}

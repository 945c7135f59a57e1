package image

import (
	"context"

	"github.com/kingai-forge/aldlflash/bankmap"
	"github.com/kingai-forge/aldlflash/session"
)

// ReadFull reads the ECU's entire flash image via the kernel's mode 9
// peek, 64 bytes at a time (the protocol's read ceiling), reporting
// progress as it goes. s must be in StateKernelResident.
func ReadFull(ctx context.Context, s *session.Session, progress func(done, total int)) (*Image, error) {
	img := &Image{}
	const chunk = 64
	total := bankmap.ImageSize

	for offset := 0; offset < total; offset += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := chunk
		if remaining := total - offset; remaining < n {
			n = remaining
		}
		data, err := s.ReadBytes(ctx, uint32(offset), n)
		if err != nil {
			return nil, err
		}
		copy(img.Data[offset:offset+n], data)
		if progress != nil {
			progress(offset+n, total)
		}
	}
	return img, nil
}

package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// sniffLen mimetype 嗅探所需的头部长度
const sniffLen = 3072

// Spool 上传内容的本地临时文件
// 调用方必须 Close，Close 会删除临时文件
type Spool struct {
	file *os.File
	head []byte
	size int64
}

// NewSpool 把请求体写入临时文件，最多读取 MaxFileSize+1 字节
// 实际长度超过上限时返回 ErrFileTooLarge（声明的大小不可信）
func NewSpool(dir string, body io.Reader) (*Spool, error) {
	f, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	s := &Spool{file: f}

	n, err := io.Copy(f, io.LimitReader(body, MaxFileSize+1))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	s.size = n
	if err := CheckSize(n); err != nil {
		s.Close()
		return nil, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		s.Close()
		return nil, fmt.Errorf("rewind spool: %w", err)
	}
	head := make([]byte, sniffLen)
	m, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		s.Close()
		return nil, fmt.Errorf("read spool head: %w", err)
	}
	s.head = head[:m]

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		s.Close()
		return nil, fmt.Errorf("rewind spool: %w", err)
	}
	return s, nil
}

// Head 文件头部，用于类型嗅探
func (s *Spool) Head() []byte {
	return s.head
}

func (s *Spool) Size() int64 {
	return s.size
}

func (s *Spool) Read(p []byte) (int, error) {
	return s.file.Read(p)
}

// Close 关闭并删除临时文件
// 关闭失败时仍会尝试删除，两个错误一起返回
func (s *Spool) Close() error {
	name := s.file.Name()
	closeErr := s.file.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("close spool: %w", closeErr)
	}
	removeErr := os.Remove(name)
	if removeErr != nil {
		removeErr = fmt.Errorf("remove spool: %w", removeErr)
	}
	return errors.Join(closeErr, removeErr)
}

/*******************************************************************************
* File name: multipart.go
*
* Description: builds a multipart/form-data request body for tests against
* the file API.
*******************************************************************************/

package testutil

import (
	"bytes"
	"io"
	"mime/multipart"
)

// MultipartFile builds a "file" form field containing content and returns
// the encoded body plus its Content-Type header value.
func MultipartFile(filename string, content []byte) (body *bytes.Buffer, contentType string, err error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, bytes.NewReader(content)); err != nil {
		return nil, "", err
	}
	ct := w.FormDataContentType()
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, ct, nil
}

package storage

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Param modifies an upload request. Params run after the provider's defaults,
// so they win when they set the same field.
type Param func(*s3.PutObjectInput)

// DeleteParam modifies a delete request.
type DeleteParam func(*s3.DeleteObjectInput)

// metadataPrefix marks map keys that become user metadata entries
const metadataPrefix = "Metadata."

// WithACL sets the canned ACL of the uploaded object
func WithACL(acl string) Param {
	return func(in *s3.PutObjectInput) {
		in.ACL = s3types.ObjectCannedACL(acl)
	}
}

// WithCacheControl sets the Cache-Control header stored with the object
func WithCacheControl(v string) Param {
	return func(in *s3.PutObjectInput) {
		in.CacheControl = aws.String(v)
	}
}

// WithContentDisposition sets the Content-Disposition header stored with the object
func WithContentDisposition(v string) Param {
	return func(in *s3.PutObjectInput) {
		in.ContentDisposition = aws.String(v)
	}
}

// WithContentEncoding sets the Content-Encoding header stored with the object
func WithContentEncoding(v string) Param {
	return func(in *s3.PutObjectInput) {
		in.ContentEncoding = aws.String(v)
	}
}

// WithContentType overrides the content type taken from the file's mime
func WithContentType(v string) Param {
	return func(in *s3.PutObjectInput) {
		in.ContentType = aws.String(v)
	}
}

// WithMetadata adds user metadata entries
func WithMetadata(md map[string]string) Param {
	return func(in *s3.PutObjectInput) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string, len(md))
		}
		maps.Copy(in.Metadata, md)
	}
}

// WithStorageClass sets the storage class of the uploaded object
func WithStorageClass(class string) Param {
	return func(in *s3.PutObjectInput) {
		in.StorageClass = s3types.StorageClass(class)
	}
}

// WithTagging sets the URL-encoded tag set of the uploaded object
func WithTagging(tags string) Param {
	return func(in *s3.PutObjectInput) {
		in.Tagging = aws.String(tags)
	}
}

// WithVersionID deletes a specific object version
func WithVersionID(id string) DeleteParam {
	return func(in *s3.DeleteObjectInput) {
		in.VersionId = aws.String(id)
	}
}

// ParamsFromMap converts loosely typed request fields, named after the
// PutObject request members, into upload params. Keys prefixed with
// "Metadata." become user metadata entries.
func ParamsFromMap(m map[string]string) ([]Param, error) {
	params := make([]Param, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		v := m[k]

		if name, ok := strings.CutPrefix(k, metadataPrefix); ok && name != "" {
			params = append(params, WithMetadata(map[string]string{name: v}))
			continue
		}

		var p Param
		switch k {
		case "ACL":
			p = WithACL(v)
		case "CacheControl":
			p = WithCacheControl(v)
		case "ContentDisposition":
			p = WithContentDisposition(v)
		case "ContentEncoding":
			p = WithContentEncoding(v)
		case "ContentLanguage":
			p = func(in *s3.PutObjectInput) { in.ContentLanguage = aws.String(v) }
		case "ContentType":
			p = WithContentType(v)
		case "StorageClass":
			p = WithStorageClass(v)
		case "Tagging":
			p = WithTagging(v)
		case "ServerSideEncryption":
			p = func(in *s3.PutObjectInput) { in.ServerSideEncryption = s3types.ServerSideEncryption(v) }
		case "SSEKMSKeyId":
			p = func(in *s3.PutObjectInput) { in.SSEKMSKeyId = aws.String(v) }
		case "ExpectedBucketOwner":
			p = func(in *s3.PutObjectInput) { in.ExpectedBucketOwner = aws.String(v) }
		default:
			return nil, fmt.Errorf("%w: upload param %q", ErrUnknownParam, k)
		}
		params = append(params, p)
	}
	return params, nil
}

// DeleteParamsFromMap is the delete request counterpart of ParamsFromMap
func DeleteParamsFromMap(m map[string]string) ([]DeleteParam, error) {
	params := make([]DeleteParam, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		v := m[k]
		switch k {
		case "VersionId":
			params = append(params, WithVersionID(v))
		case "MFA":
			params = append(params, func(in *s3.DeleteObjectInput) { in.MFA = aws.String(v) })
		case "ExpectedBucketOwner":
			params = append(params, func(in *s3.DeleteObjectInput) { in.ExpectedBucketOwner = aws.String(v) })
		default:
			return nil, fmt.Errorf("%w: delete param %q", ErrUnknownParam, k)
		}
	}
	return params, nil
}

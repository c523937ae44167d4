package services

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/s3"
)

type putterStub struct {
	input *s3.PutObjectInput
	err   error
}

func (p *putterStub) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	p.input = input
	return &s3.PutObjectOutput{}, p.err
}

func TestSelfieUpload(t *testing.T) {
	stub := &putterStub{}
	svc := &SelfieService{
		client:        stub,
		bucket:        "selfie-bucket",
		publicBaseURL: "https://cdn.example.com/selfie-bucket",
	}

	url, err := svc.Upload("dev-a", []byte("jpeg-bytes"), "")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if stub.input == nil {
		t.Fatal("nothing was uploaded")
	}
	if *stub.input.Bucket != "selfie-bucket" {
		t.Errorf("unexpected bucket %q", *stub.input.Bucket)
	}
	if *stub.input.ACL != "public-read" {
		t.Errorf("selfies must be publicly readable, got ACL %q", *stub.input.ACL)
	}
	if *stub.input.ContentType != "image/jpeg" {
		t.Errorf("expected jpeg default content type, got %q", *stub.input.ContentType)
	}
	body, _ := io.ReadAll(stub.input.Body)
	if string(body) != "jpeg-bytes" {
		t.Errorf("body mangled: %q", body)
	}

	if !strings.HasPrefix(url, "https://cdn.example.com/selfie-bucket/selfies/dev-a/") {
		t.Errorf("unexpected public URL %q", url)
	}
	if !strings.HasPrefix(*stub.input.Key, "selfies/dev-a/") || !strings.HasSuffix(*stub.input.Key, ".jpg") {
		t.Errorf("unexpected object key %q", *stub.input.Key)
	}
}

func TestObjectKeyUniquePerCall(t *testing.T) {
	at := time.Date(2031, 5, 10, 8, 0, 0, 0, time.UTC)
	a := ObjectKey("dev-a", at)
	b := ObjectKey("dev-a", at)
	if a == b {
		t.Fatal("keys for the same device and instant must still differ")
	}
}

package oaf

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ResolveURI resolves ref against base following RFC 3986 reference
// resolution. An absolute ref is returned unchanged, as is any ref when base
// is empty.
//
// Resolution is purely lexical: a base ending in a file name resolves
// siblings of that file ("http://h/dir/index.json" + "x.oaf" gives
// "http://h/dir/x.oaf"), while a base ending in "/" resolves children.
func ResolveURI(base, ref string) (string, error) {
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse location %q: %w", ref, err)
	}
	if refURL.IsAbs() || base == "" {
		return ref, nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// WorkingDirURI returns a file URI for the process working directory,
// ending in "/" so relative references resolve inside it.
func WorkingDirURI() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return DirURI(wd), nil
}

// DirURI returns a file URI for the directory dir, ending in "/".
func DirURI(dir string) string {
	p := filepath.ToSlash(dir)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalName 规范化占位符名称：NFC、NBSP 转空格、去除首尾空白，保留大小写
func CanonicalName(name string) string {
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, "\u00a0", " ")
	name = strings.ReplaceAll(name, "\u202f", " ")
	return strings.TrimSpace(name)
}

// StripDelimiters 去掉已知的定界符，[[NAME]] 和 «NAME» 都返回 NAME
func StripDelimiters(key string) string {
	key = strings.TrimSpace(key)
	for _, d := range []Delimiters{DefaultDelimiters, GuillemetDelimiters} {
		if len(key) > len(d.Open)+len(d.Close) && strings.HasPrefix(key, d.Open) && strings.HasSuffix(key, d.Close) {
			return key[len(d.Open) : len(key)-len(d.Close)]
		}
	}
	return key
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

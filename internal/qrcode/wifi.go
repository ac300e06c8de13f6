package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// ErrEmptyNetwork 网络名称为空
var ErrEmptyNetwork = errors.New("WiFi 网络名称为空")

// DefaultSize 生成二维码的边长（像素）
const DefaultSize = 512

var wifiEscaper = strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, `:`, `\:`, `"`, `\"`)

// WifiPayload 生成手机可识别的 WiFi 配置文本，没有密码时为开放网络
func WifiPayload(ssid, password string) (string, error) {
	ssid = strings.TrimSpace(ssid)
	if ssid == "" {
		return "", ErrEmptyNetwork
	}
	if password == "" {
		return fmt.Sprintf("WIFI:T:nopass;S:%s;;", wifiEscaper.Replace(ssid)), nil
	}
	return fmt.Sprintf("WIFI:T:WPA;S:%s;P:%s;;", wifiEscaper.Replace(ssid), wifiEscaper.Replace(password)), nil
}

// WifiPNG 生成 WiFi 二维码 PNG
func WifiPNG(ssid, password string, size int) ([]byte, error) {
	payload, err := WifiPayload(ssid, password)
	if err != nil {
		return nil, err
	}
	return PNG(payload, size)
}

// PNG 把任意文本编码为二维码 PNG
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("缩放二维码失败: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("编码二维码失败: %w", err)
	}
	return buf.Bytes(), nil
}

package configmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	_ Getter = Simple(nil)
	_ Getter = GetterFunc(nil)
	_ Getter = Layers(nil)
)

func TestLayers(t *testing.T) {
	value, found := Layers{}.Get("host")
	assert.Equal(t, "", value)
	assert.False(t, found)

	file := Simple{"host": "10.0.0.2", "port": "5037"}
	env := GetterFunc(func(key string) (string, bool) {
		if key == "port" {
			return "5038", true
		}
		return "", false
	})
	m := Layers{env, nil, file}

	value, found = m.Get("port")
	assert.Equal(t, "5038", value)
	assert.True(t, found)

	value, found = m.Get("host")
	assert.Equal(t, "10.0.0.2", value)
	assert.True(t, found)

	_, found = m.Get("adb_path")
	assert.False(t, found)
}

func TestSimpleString(t *testing.T) {
	assert.Equal(t, "", Simple(nil).String())
	assert.Equal(t, "host='localhost',port='5037'", Simple{"port": "5037", "host": "localhost"}.String())
	assert.Equal(t, "adb_path='it''s'", Simple{"adb_path": "it's"}.String())
}

//go:build windows

package disks

import (
	"errors"
	"fmt"
	"runtime"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// sFalse is returned by CoInitializeEx when COM is already initialised on the thread
const sFalse = 0x00000001

// WMIQuerier runs WQL queries in one WMI namespace
type WMIQuerier struct {
	namespace string
}

// NewWMIQuerier creates a querier bound to namespace
func NewWMIQuerier(namespace string) (*WMIQuerier, error) {
	if namespace == "" {
		return nil, errors.New("wmi namespace is required")
	}
	return &WMIQuerier{namespace: namespace}, nil
}

// Query runs query and converts every result object into a Record
func (q *WMIQuerier) Query(query string) ([]Record, error) {
	// COM apartments are per OS thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return nil, fmt.Errorf("initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		return nil, fmt.Errorf("create locator: %w", err)
	}
	defer unknown.Release()

	locator, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, fmt.Errorf("query locator interface: %w", err)
	}
	defer locator.Release()

	serviceRaw, err := oleutil.CallMethod(locator, "ConnectServer", nil, q.namespace)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", q.namespace, err)
	}
	service := serviceRaw.ToIDispatch()
	defer serviceRaw.Clear()

	resultRaw, err := oleutil.CallMethod(service, "ExecQuery", query)
	if err != nil {
		return nil, fmt.Errorf("exec %q: %w", query, err)
	}
	result := resultRaw.ToIDispatch()
	defer resultRaw.Clear()

	var records []Record
	err = oleutil.ForEach(result, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		rec, err := readObject(item)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read results of %q: %w", query, err)
	}

	return records, nil
}

// Associators walks assocClass from the instance class.id
func (q *WMIQuerier) Associators(class, id, assocClass string) ([]Record, error) {
	return q.Query(associatorsQuery(class, id, assocClass))
}

func readObject(item *ole.IDispatch) (Record, error) {
	propsRaw, err := oleutil.GetProperty(item, "Properties_")
	if err != nil {
		return nil, err
	}
	defer propsRaw.Clear()

	rec := make(Record)
	err = oleutil.ForEach(propsRaw.ToIDispatch(), func(v *ole.VARIANT) error {
		prop := v.ToIDispatch()

		name, err := stringProperty(prop, "Name")
		if err != nil {
			return err
		}
		cimType, err := oleutil.GetProperty(prop, "CIMType")
		if err != nil {
			return err
		}
		defer cimType.Clear()
		isArray, err := oleutil.GetProperty(prop, "IsArray")
		if err != nil {
			return err
		}
		defer isArray.Clear()
		value, err := oleutil.GetProperty(prop, "Value")
		if err != nil {
			return err
		}
		defer value.Clear()

		code, _ := toInt64(cimType.Value())
		array, _ := isArray.Value().(bool)

		var raw any
		switch {
		case value.VT == ole.VT_NULL || value.VT == ole.VT_EMPTY:
			raw = nil
		case value.VT&ole.VT_ARRAY != 0:
			raw = value.ToArray().ToValueArray()
		default:
			raw = value.Value()
		}

		if converted := convertCIM(int(code), array, raw); converted != nil {
			rec[name] = converted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func stringProperty(disp *ole.IDispatch, name string) (string, error) {
	v, err := oleutil.GetProperty(disp, name)
	if err != nil {
		return "", err
	}
	defer v.Clear()
	return v.ToString(), nil
}

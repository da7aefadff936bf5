// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/Thermoquad/velocictl/mup1coap"
	"github.com/spf13/cobra"
)

var coapCmd = &cobra.Command{
	Use:   "coap",
	Short: "Issue raw CORECONF requests against the device's YANG datastore",
}

var coapGetCmd = &cobra.Command{
	Use:   "get <uri>",
	Short: "GET a CORECONF resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCoAP(func(ctrl *mup1coap.Controller) (mup1coap.Message, error) {
			return ctrl.CoAPGet(args[0])
		})
	},
}

var coapDeleteCmd = &cobra.Command{
	Use:   "delete <uri>",
	Short: "DELETE a CORECONF resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCoAP(func(ctrl *mup1coap.Controller) (mup1coap.Message, error) {
			return ctrl.CoAPDelete(args[0])
		})
	},
}

var coapPostCmd = &cobra.Command{
	Use:   "post <uri> <json-payload>",
	Short: "POST a JSON-encoded payload (re-encoded as CBOR) to a CORECONF resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := decodeJSONPayload(args[1])
		if err != nil {
			return err
		}
		return runCoAP(func(ctrl *mup1coap.Controller) (mup1coap.Message, error) {
			return ctrl.CoAPPost(args[0], payload)
		})
	},
}

var coapPutCmd = &cobra.Command{
	Use:   "put <uri> <json-payload>",
	Short: "PUT a JSON-encoded payload (re-encoded as CBOR) to a CORECONF resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := decodeJSONPayload(args[1])
		if err != nil {
			return err
		}
		return runCoAP(func(ctrl *mup1coap.Controller) (mup1coap.Message, error) {
			return ctrl.CoAPPut(args[0], payload)
		})
	},
}

var coapFetchCmd = &cobra.Command{
	Use:   "fetch <uri> <json-payload>",
	Short: "FETCH a CORECONF resource with a query payload",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := decodeJSONPayload(args[1])
		if err != nil {
			return err
		}
		return runCoAP(func(ctrl *mup1coap.Controller) (mup1coap.Message, error) {
			return ctrl.CoAPFetch(args[0], payload)
		})
	},
}

func init() {
	coapCmd.AddCommand(coapGetCmd, coapDeleteCmd, coapPostCmd, coapPutCmd, coapFetchCmd)
	rootCmd.AddCommand(coapCmd)
}

// jsonSafe recursively rewrites CBOR-decoded map[interface{}]interface{}
// values (which encoding/json cannot marshal) into map[string]interface{}
// so CoAP response bodies can always be printed as JSON.
func jsonSafe(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = jsonSafe(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = jsonSafe(val)
		}
		return out
	default:
		return t
	}
}

func decodeJSONPayload(raw string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("velocictl: parsing JSON payload: %w", err)
	}
	return v, nil
}

func runCoAP(fn func(*mup1coap.Controller) (mup1coap.Message, error)) error {
	ctrl, err := openController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	msg, err := fn(ctrl)
	if err != nil {
		return err
	}

	if msg.HasValue {
		encoded, err := json.MarshalIndent(jsonSafe(msg.Value), "", "  ")
		if err != nil {
			return fmt.Errorf("velocictl: encoding response as JSON: %w", err)
		}
		fmt.Println(string(encoded))
	} else {
		fmt.Printf("%d.%02d OK\n", msg.Code>>5, msg.Code&0x1F)
	}
	return nil
}

package inertiaframe

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/go-json-experiment/json"
	"go.inout.gg/foundations/debug"
	"go.inout.gg/foundations/http/httperror"

	"go.inout.gg/inertiacore"
	"go.inout.gg/inertiacore/internal/inertiaheader"
)

const (
	mediaTypeJSON      = "application/json"
	mediaTypeForm      = "application/x-www-form-urlencoded"
	mediaTypeMultipart = "multipart/form-data"
)

// newHandler creates a new http.Handler for the given endpoint.
func newHandler[M any](endpoint Endpoint[M], opts *MountOpts) http.Handler {
	handleError := httperror.WithErrorHandler(opts.ErrorHandler)

	return handleError(httperror.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		f, ok := inertiacore.FromRequest(r)
		if !ok {
			return inertiacore.ErrFactoryNotFound
		}

		var msg M
		if err := decodeRequest(r, &msg, opts); err != nil {
			return err
		}

		if opts.Validator != nil {
			if err := opts.Validator.Validate(&msg); err != nil {
				d("failed to validate request")

				return fmt.Errorf("inertiaframe: failed to validate request: %w", err)
			}
		}

		resp, err := endpoint.Execute(r.Context(), newRequest(&msg))
		if err != nil {
			return fmt.Errorf("inertiaframe: failed to execute: %w", err)
		}

		if resp == nil {
			d("received empty response")

			return ErrEmptyResponse
		}

		if writer, ok := resp.m.(RawResponseWriter); ok {
			if err := writer.Write(w, r); err != nil {
				return fmt.Errorf("inertiaframe: failed to write response: %w", err)
			}

			return nil
		}

		componentName := resp.m.Component()
		debug.Assert(componentName != "", "component must not be empty, when using non RawResponseWriter")

		props, err := extractProps(resp.m)
		if err != nil {
			return fmt.Errorf("inertiaframe: failed to extract props: %w", err)
		}

		page := f.Render(r, componentName, props).
			WithViewData(resp.viewData).
			WithConcurrency(resp.concurrency)

		sess := sessionOrEmpty(r)
		if errs := sess.ValidationErrors(); len(errs) > 0 {
			page.WithValidationErrors(inertiacore.ValidationErrors(errs), sess.ErrorBag())
		}

		if r.Method == http.MethodGet {
			sess.Path_ = r.URL.RequestURI()
		}

		if err := sess.Save(w); err != nil {
			return err
		}

		if err := page.Write(w, r); err != nil {
			return fmt.Errorf("inertiaframe: failed to render: %w", err)
		}

		return nil
	}))
}

// decodeRequest fills msg from the request.
//
// GET requests carry no message body. Other requests are decoded from
// JSON or form data, as sent by the Inertia client.
func decodeRequest[M any](r *http.Request, msg *M, opts *MountOpts) error {
	if extract, ok := any(msg).(RawRequestExtractor); ok {
		if err := extract.Extract(r); err != nil {
			return fmt.Errorf("inertiaframe: failed to extract request data: %w", err)
		}

		return nil
	}

	if r.Method == http.MethodGet || r.ContentLength == 0 {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get(inertiaheader.HeaderContentType))
	if err != nil {
		return fmt.Errorf("inertiaframe: failed to parse Content-Type header: %w", err)
	}

	switch mediaType {
	case mediaTypeJSON:
		d("received JSON request")

		if err := json.UnmarshalRead(r.Body, msg, opts.JSONUnmarshalOptions...); err != nil {
			return fmt.Errorf("inertiaframe: failed to decode request: %w", err)
		}
	case mediaTypeForm, mediaTypeMultipart:
		d("received form request")

		if mediaType == mediaTypeMultipart {
			if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
				return fmt.Errorf("inertiaframe: failed to parse multipart form: %w", err)
			}
		} else if err := r.ParseForm(); err != nil {
			return fmt.Errorf("inertiaframe: failed to parse form data: %w", err)
		}

		if err := opts.FormDecoder.Decode(msg, r.Form); err != nil {
			return fmt.Errorf("inertiaframe: failed to decode form data: %w", err)
		}
	default:
		return fmt.Errorf("inertiaframe: unsupported media type %q", mediaType)
	}

	return nil
}

// defaultMaxMemory mirrors net/http's multipart memory limit.
const defaultMaxMemory = 32 << 20

// extractProps extracts props from the given message.
//
// If the message implements the inertiacore.Proper interface,
// it returns the props from the message.
// Otherwise, it attempts to parse the message as a struct and
// returns the props from the struct.
func extractProps(msg any) (inertiacore.Props, error) {
	if proper, ok := msg.(inertiacore.Proper); ok {
		return proper.Props(), nil
	}

	props, err := inertiacore.ParseStruct(msg)
	if err != nil {
		return nil, fmt.Errorf("inertiaframe: failed to parse props: %w", err)
	}

	return props, nil
}

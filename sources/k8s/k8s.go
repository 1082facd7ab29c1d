// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package k8s

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	k8sRuntime "k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/cache"
	"k8s.io/client-go/util/workqueue"

	"github.com/joamaki/pushstream/stream"
)

// Key of an K8s object, e.g. name and optional namespace.
type Key struct {
	// Name is the name of the object
	Name string

	// Namespace is the namespace, or empty if object is not namespaced.
	Namespace string
}

func (k Key) String() string {
	if len(k.Namespace) > 0 {
		return k.Namespace + "/" + k.Name
	}
	return k.Name
}

func NewKey(obj any) Key {
	if d, ok := obj.(cache.DeletedFinalStateUnknown); ok {
		namespace, name, _ := cache.SplitMetaNamespaceKey(d.Key)
		return Key{name, namespace}
	}

	meta, err := meta.Accessor(obj)
	if err != nil {
		return Key{}
	}
	if len(meta.GetNamespace()) > 0 {
		return Key{meta.GetName(), meta.GetNamespace()}
	}
	return Key{meta.GetName(), ""}
}

// Event emitted from resource. One of SyncEvent, UpdateEvent or DeleteEvent.
type Event[T k8sRuntime.Object] interface {
	isEvent(T)

	// Dispatch dispatches to the right event handler. Prefer this over
	// type switch on event.
	Dispatch(
		onSync func(Store[T]),
		onUpdate func(Key, T),
		onDelete func(Key),
	)
}

// SyncEvent is emitted when the store has completed the initial synchronization
// with the cluster.
type SyncEvent[T k8sRuntime.Object] struct {
	Store Store[T]
}

var _ Event[*corev1.Node] = &SyncEvent[*corev1.Node]{}

func (*SyncEvent[T]) isEvent(T) {}
func (s *SyncEvent[T]) Dispatch(onSync func(store Store[T]), onUpdate func(Key, T), onDelete func(Key)) {
	onSync(s.Store)
}

// UpdateEvent is emitted when an object has been added or updated
type UpdateEvent[T k8sRuntime.Object] struct {
	Key    Key
	Object T
}

var _ Event[*corev1.Node] = &UpdateEvent[*corev1.Node]{}

func (*UpdateEvent[T]) isEvent(T) {}
func (ev *UpdateEvent[T]) Dispatch(onSync func(Store[T]), onUpdate func(Key, T), onDelete func(Key)) {
	onUpdate(ev.Key, ev.Object)
}

// DeleteEvent is emitted when an object has been deleted
type DeleteEvent[T k8sRuntime.Object] struct {
	Key Key
}

var _ Event[*corev1.Node] = &DeleteEvent[*corev1.Node]{}

func (*DeleteEvent[T]) isEvent(T) {}
func (ev *DeleteEvent[T]) Dispatch(onSync func(Store[T]), onUpdate func(Key, T), onDelete func(Key)) {
	onDelete(ev.Key)
}

// Store is a read-only typed wrapper for cache.Store.
type Store[T k8sRuntime.Object] interface {
	List() []T
	ListKeys() []string
	Get(obj T) (item T, exists bool, err error)
	GetByKey(key string) (item T, exists bool, err error)
}

type typedStore[T k8sRuntime.Object] struct {
	store cache.Store
}

var _ Store[*corev1.Node] = &typedStore[*corev1.Node]{}

func (s *typedStore[T]) List() []T {
	items := s.store.List()
	result := make([]T, len(items))
	for i := range items {
		result[i] = items[i].(T)
	}
	return result
}

func (s *typedStore[T]) ListKeys() []string {
	return s.store.ListKeys()
}

func (s *typedStore[T]) Get(obj T) (item T, exists bool, err error) {
	var key string
	key, err = cache.MetaNamespaceKeyFunc(obj)
	if err != nil {
		return
	}
	return s.GetByKey(key)
}

func (s *typedStore[T]) GetByKey(key string) (item T, exists bool, err error) {
	var itemAny any
	itemAny, exists, err = s.store.GetByKey(key)
	if exists {
		item = itemAny.(T)
	}
	return
}

// NewResource creates a stream of events from a ListerWatcher.
// The initial set of objects is emitted first as UpdateEvents, followed by a SyncEvent, after
// which updates follow. SyncEvent contains a read-only handle onto the underlying store.
//
// Every subscription runs its own informer. Cancelling the subscription stops
// the informer.
func NewResource[T k8sRuntime.Object](lw cache.ListerWatcher) stream.Observable[Event[T]] {
	return stream.New[Event[T]](
		func(s *stream.Subscriber[Event[T]]) stream.Teardown {
			var exampleObject T
			queue := workqueue.NewRateLimitingQueue(workqueue.DefaultControllerRateLimiter())
			push := func(obj any) { queue.Add(NewKey(obj)) }

			store, informer := cache.NewInformer(lw, exampleObject, 0,
				cache.ResourceEventHandlerFuncs{
					AddFunc:    push,
					UpdateFunc: func(old any, new any) { push(new) },
					DeleteFunc: push,
				})

			stop := make(chan struct{})
			go informer.Run(stop)
			go emitEvents(s, store, informer, queue, stop)

			return func() {
				close(stop)
				queue.ShutDown()
			}
		})
}

// emitEvents waits for the informer to sync, emits the initial set and then
// follows the changes queued by the event handlers.
func emitEvents[T k8sRuntime.Object](s *stream.Subscriber[Event[T]], store cache.Store, informer cache.Controller, queue workqueue.RateLimitingInterface, stop <-chan struct{}) {
	if !cache.WaitForCacheSync(stop, informer.HasSynced) {
		return
	}

	// Emit the initial set of objects followed by the sync event
	initialVersions := make(map[Key]string)
	for _, obj := range store.List() {
		key := NewKey(obj)
		s.Next(&UpdateEvent[T]{key, obj.(T)})
		initialVersions[key] = resourceVersion(obj)
	}
	s.Next(&SyncEvent[T]{&typedStore[T]{store}})

	for {
		rawKey, shutdown := queue.Get()
		if shutdown {
			return
		}
		queue.Done(rawKey)
		queue.Forget(rawKey)
		key := rawKey.(Key)

		rawObj, exists, err := store.GetByKey(key.String())
		if err != nil {
			s.Error(err)
			return
		}

		if len(initialVersions) > 0 {
			if initialVersion, ok := initialVersions[key]; ok {
				// We can now forget the initial version.
				delete(initialVersions, key)
				if exists && initialVersion == resourceVersion(rawObj) {
					// Already emitted, skip.
					continue
				}
			}
		}

		if exists {
			s.Next(&UpdateEvent[T]{key, rawObj.(T)})
		} else {
			s.Next(&DeleteEvent[T]{key})
		}
	}
}

// NewResourceFromListWatch creates a stream of events from the typed client, e.g. (kubernetes.Interface).Pods() etc.
// The context is passed to the List and Watch calls.
func NewResourceFromListWatch[ObjT k8sRuntime.Object, ListT k8sRuntime.Object](ctx context.Context, lw TypedListerWatcher[ListT]) stream.Observable[Event[ObjT]] {
	return NewResource[ObjT](listerWatcherAdapter[ListT]{ctx, lw})
}

// NewResourceFromClient creates a stream of events from a k8s REST client for
// the given resource and namespace.
func NewResourceFromClient[T k8sRuntime.Object](
	resource string,
	namespace string,
	client rest.Interface,
) stream.Observable[Event[T]] {
	lw := cache.NewListWatchFromClient(
		client,
		resource,
		namespace,
		fields.Everything(),
	)
	return NewResource[T](lw)
}

func resourceVersion(obj any) (version string) {
	if obj != nil {
		meta, err := meta.Accessor(obj)
		if err == nil {
			return meta.GetResourceVersion()
		}
	}
	return ""
}

// TypedListerWatcher is the interface implemented by the generated clients.
type TypedListerWatcher[ListT k8sRuntime.Object] interface {
	List(context.Context, metav1.ListOptions) (ListT, error)
	Watch(context.Context, metav1.ListOptions) (watch.Interface, error)
}

// listerWatcherAdapter implements cache.ListerWatcher in terms of a typed List and Watch methods.
type listerWatcherAdapter[ListT k8sRuntime.Object] struct {
	ctx   context.Context
	typed TypedListerWatcher[ListT]
}

func (tlw listerWatcherAdapter[T]) Watch(options metav1.ListOptions) (watch.Interface, error) {
	return tlw.typed.Watch(tlw.ctx, options)
}

func (tlw listerWatcherAdapter[T]) List(options metav1.ListOptions) (k8sRuntime.Object, error) {
	return tlw.typed.List(tlw.ctx, options)
}

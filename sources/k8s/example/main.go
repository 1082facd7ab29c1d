// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strings"
	"sync"

	"github.com/kr/pretty"
	log "github.com/sirupsen/logrus"
	v1 "k8s.io/api/core/v1"
	k8sRuntime "k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/joamaki/pushstream/sources/k8s"
	"github.com/joamaki/pushstream/stream"
)

var (
	apiServerURL   string
	kubeConfigPath string
	namespace      string
)

func init() {
	flag.StringVar(&apiServerURL, "server-url", "", "Kubernetes API server URL")
	var defaultKubeConfigPath string
	if homeDir, err := os.UserHomeDir(); err == nil {
		defaultKubeConfigPath = path.Join(homeDir, ".kube", "config")
	}
	flag.StringVar(&kubeConfigPath, "kubeconfig", defaultKubeConfigPath, "Path to kubeconfig")
	flag.StringVar(&namespace, "namespace", "default", "Namespace to watch")
}

func main() {
	flag.Parse()

	client, err := newK8sRESTClient(apiServerURL, kubeConfigPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to create k8s client")
	}

	var (
		mu     sync.Mutex
		failed = make(chan error, 3)
	)
	printLine := func(desc string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Println(desc)
	}

	fmt.Println("Waiting for updates...")

	subs := []*stream.Subscription{
		watch[*v1.Pod](client, "pods", printLine, failed),
		watch[*v1.Service](client, "services", printLine, failed),
		watch[*v1.Endpoints](client, "endpoints", printLine, failed),
	}

	// Stop on interrupt (ctrl-c) or on the first stream error.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case <-sigs:
		log.Info("Interrupted, stopping...")
	case err := <-failed:
		log.WithError(err).Error("Stream failed")
	}

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// watch subscribes to the changes of a resource and prints a description of
// each change.
func watch[T k8sRuntime.Object](client rest.Interface, resource string, printLine func(string), failed chan<- error) *stream.Subscription {
	differ := newDiffer[T]()
	describe := func(ev k8s.Event[T]) (desc string) {
		ev.Dispatch(
			func(store k8s.Store[T]) {
				desc = fmt.Sprintf("%s synced (%d objects)", resource, len(store.ListKeys()))
			},
			func(key k8s.Key, obj T) {
				desc = fmt.Sprintf("%s %s updated:\n%s\n", resource, key, differ.diff(key.String(), obj))
			},
			func(key k8s.Key) {
				desc = fmt.Sprintf("%s %s deleted", resource, key)
			},
		)
		return
	}

	events := k8s.NewResourceFromClient[T](resource, namespace, client)
	return stream.Map(describe)(events).Subscribe(stream.ObserverFuncs[string]{
		NextFunc:  printLine,
		ErrorFunc: func(err error) { failed <- err },
	})
}

type differ[T any] struct {
	previous map[string]T
}

func newDiffer[T any]() differ[T] {
	return differ[T]{make(map[string]T)}
}

func (d differ[T]) diff(key string, obj T) string {
	changeDesc := ""
	if prev, ok := d.previous[key]; ok {
		changes := pretty.Diff(prev, obj)
		changeDesc = strings.Join(changes, "\n")
	} else {
		changeDesc = fmt.Sprintf("%#v", obj)
	}
	d.previous[key] = obj
	return changeDesc
}

func newK8sRESTClient(url, kubeconfig string) (rest.Interface, error) {
	config, err := clientcmd.BuildConfigFromFlags(url, kubeconfig)
	if err != nil {
		return nil, err
	}
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, err
	}
	return clientset.CoreV1().RESTClient(), nil
}
